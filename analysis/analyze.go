package analysis

import (
	"context"
	"errors"
	"fmt"

	"kresolve/ast"
	"kresolve/resolve"
	"kresolve/trace"
	"kresolve/walk"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of analyzing one file.
type Result struct {
	File *ast.File

	// Trace holds the analysis results and the diagnostics of the file.
	Trace *trace.BindingTrace

	// Calls are the calls resolved in the file in source order.
	Calls []*resolve.ResolvedCall
}

// AnalyzeFile analyzes the bodies of a file of the session.  The returned trace
// holds the results of both the declaration pass and the analysis along with
// all the file's diagnostics.  A file is analyzed at most once: later calls
// return the same results.  If ctx is cancelled during the analysis, nothing
// is recorded and the context's error is returned; the file can then be
// analyzed again.
func AnalyzeFile(ctx context.Context, s *Session, file *ast.File) (*trace.BindingTrace, []*resolve.ResolvedCall, error) {
	if !s.declared {
		return nil, nil, errors.New("the session's declarations must be resolved before analysis")
	}

	sf, ok := s.fileIndex[file]
	if !ok {
		return nil, nil, fmt.Errorf("%s is not part of the session", file.Path)
	}

	sf.m.Lock()
	defer sf.m.Unlock()

	if !sf.analyzed {
		calls, err := walk.WalkFile(ctx, s.declarer.Env(), sf.src)
		if err != nil {
			return nil, nil, err
		}

		sf.calls = calls
		sf.analyzed = true
	}

	return sf.src.Trace, sf.calls, nil
}

// AnalyzeFiles analyzes every file of the session concurrently.  The results
// are in the order the files were added.  The first error cancels the
// remaining analyses.
func (s *Session) AnalyzeFiles(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(s.files))

	g, gctx := errgroup.WithContext(ctx)
	if s.parallelism > 0 {
		g.SetLimit(s.parallelism)
	}

	for i, sf := range s.files {
		g.Go(func() error {
			file := sf.src.File

			bt, calls, err := AnalyzeFile(gctx, s, file)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", file.Path, err)
			}

			results[i] = &Result{File: file, Trace: bt, Calls: calls}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Report displays the diagnostics of the results in order.
func (s *Session) Report(results []*Result) {
	for _, res := range results {
		s.Reporter.ReportDiagnostics(res.File.Path, res.File.Text, res.Trace.Diagnostics())
	}
}

// Check analyzes all the files of the session and reports their diagnostics.
// It returns whether the module is free of errors.
func (s *Session) Check(ctx context.Context) ([]*Result, bool, error) {
	s.Reporter.LogPhase("analyzing %d files", len(s.files))

	results, err := s.AnalyzeFiles(ctx)
	if err != nil {
		return nil, false, err
	}

	s.Report(results)
	s.Reporter.ReportSummary(len(results))

	return results, !s.Reporter.AnyErrors(), nil
}
