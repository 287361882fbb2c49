package report

import (
	"errors"
	"fmt"
)

// DiagnosticSink is anything that diagnostics can be reported into.  Reporting
// always appends: diagnostics are never deduplicated.
type DiagnosticSink interface {
	Report(diag *Diagnostic)
}

// -----------------------------------------------------------------------------

// LocalCompileError is an internal inconsistency detected somewhere inside the
// analysis of a declaration: a descriptor missing a required field, a closed
// trace being written to, etc.  These are raised via `panic` and caught by
// CatchErrors at the declaration boundary.
type LocalCompileError struct {
	// The error message.
	Message string

	// The span over which the error occurs.  This may be nil in which case the
	// span of the enclosing element is used.
	Span *TextSpan
}

func (lce *LocalCompileError) Error() string {
	return lce.Message
}

// Raise panics with a new local compile error.
func Raise(span *TextSpan, msg string, args ...any) {
	panic(&LocalCompileError{Message: fmt.Sprintf(msg, args...), Span: span})
}

// AbortError wraps the reason analysis was abandoned (almost always a context
// cancellation).  Unlike a LocalCompileError, it is never converted into a
// diagnostic: it must unwind all the way out of the analysis of the file.
type AbortError struct {
	Err error
}

func (ae *AbortError) Error() string {
	return "analysis aborted: " + ae.Err.Error()
}

func (ae *AbortError) Unwrap() error {
	return ae.Err
}

// Abort panics with an abort error wrapping err.
func Abort(err error) {
	panic(&AbortError{Err: err})
}

// -----------------------------------------------------------------------------

// CatchErrors catches any errors thrown by a `panic` during the analysis of
// elem and reports them into sink as INTERNAL_ERROR diagnostics: local compile
// errors as well as runtime errors and other panics.  Abort errors keep
// unwinding.
// NB: This function must ALWAYS be deferred.
func CatchErrors(sink DiagnosticSink, elem Spanned) {
	if x := recover(); x != nil {
		switch v := x.(type) {
		case *AbortError:
			panic(v)
		case *LocalCompileError:
			if v.Span == nil {
				sink.Report(InternalError.On(elem, v.Message))
			} else {
				sink.Report(InternalError.OnSpans(elem, []*TextSpan{v.Span}, v.Message))
			}
		case error:
			sink.Report(InternalError.On(elem, v.Error()))
		default:
			sink.Report(InternalError.On(elem, fmt.Sprint(v)))
		}
	}
}

// CatchAbort converts an abort error thrown by a `panic` into a regular error
// stored in errp.  Any other panic keeps unwinding.
// NB: This function must ALWAYS be deferred.
func CatchAbort(errp *error) {
	if x := recover(); x != nil {
		if aerr, ok := x.(*AbortError); ok {
			*errp = aerr.Err
		} else {
			panic(x)
		}
	}
}

// IsAbort returns whether err is (or wraps) an abort error.
func IsAbort(err error) bool {
	var aerr *AbortError
	return errors.As(err, &aerr)
}
