package checkers

import (
	"kresolve/report"
	"kresolve/resolve"
)

// DeprecationChecker warns about calls to deprecated functions.
type DeprecationChecker struct{}

func (dc *DeprecationChecker) Check(call *resolve.ResolvedCall, cctx *CheckContext) {
	fd := call.Candidate.Original()

	if fd.Deprecated {
		cctx.Trace.Report(report.Deprecation.On(call.Call.Callee, fd.Repr(), fd.DeprecationMessage))
	}
}
