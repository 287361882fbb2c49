package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"kresolve/analysis"

	"github.com/ComedicChimera/olive"
	"github.com/kr/pretty"
)

// execCheckCommand executes the check subcommand and handles all errors.
func execCheckCommand(ctx context.Context, result *olive.ArgParseResult, logLevel string) int {
	moduleRelPath, _ := result.PrimaryArg()

	mod, reporter, err := loadModule(moduleRelPath, logLevel)
	if err != nil {
		return 1
	}

	s, err := analysis.OpenModule(ctx, mod, reporter)
	if err != nil {
		reporter.ReportStdError("Load Error", err)
		return exitCodeOf(err)
	}

	results, ok, err := s.Check(ctx)
	if err != nil {
		reporter.ReportStdError("Analysis Error", err)
		return exitCodeOf(err)
	}

	if result.HasFlag("dump") {
		dumpCalls(os.Stdout, results)
	}

	if !ok {
		return 1
	}

	return 0
}

// -----------------------------------------------------------------------------

// callDump is the printed form of a resolved call.
type callDump struct {
	Position     string
	Callee       string
	TypeArgs     string
	Params       []string
	UsesDefaults bool
	Type         string
}

// dumpCalls prints the resolved calls of each file.
func dumpCalls(w io.Writer, results []*analysis.Result) {
	for _, res := range results {
		fmt.Fprintf(w, "\n%s: %d calls\n", res.File.Path, len(res.Calls))

		for _, call := range res.Calls {
			span := call.Call.Node.Span()

			cd := callDump{
				Position:     fmt.Sprintf("%d:%d", span.StartLine+1, span.StartCol+1),
				Callee:       call.Candidate.Repr(),
				UsesDefaults: call.UsesDefaults,
				Type:         call.ReturnType.Repr(),
			}

			if call.Substitution != nil {
				cd.TypeArgs = call.Substitution.Repr()
			}

			for _, param := range call.ArgumentParams {
				cd.Params = append(cd.Params, param.Name())
			}

			pretty.Fprintf(w, "%# v\n", cd)
		}
	}
}
