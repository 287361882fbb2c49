package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// displayDiagnostic displays a diagnostic with its banner and the highlighted
// source text.
func (r *Reporter) displayDiagnostic(path string, src []byte, diag *Diagnostic) {
	r.displayBanner(path, diag)

	span := diag.Span()
	fmt.Fprintf(r.out, "%d:%d: %s\n", span.StartLine+1, span.StartCol+1, diag.Message())

	if src != nil {
		r.displayCodeSelection(string(src), span, diag.IsError())
	}
}

// displayBanner displays the banner on top of every diagnostic.
func (r *Reporter) displayBanner(path string, diag *Diagnostic) {
	fmt.Fprint(r.out, "\n-- ")

	label := diag.Factory.Name
	if diag.IsError() {
		fmt.Fprint(r.out, ErrorStyleBG.Sprint(label))
	} else {
		fmt.Fprint(r.out, WarnStyleBG.Sprint(label))
	}

	fmt.Fprint(r.out, " ")

	fileName := filepath.Base(path)
	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}

	dashCount := max(bannerLen-len(fileName)-len(label)-1, 3)
	fmt.Fprint(r.out, strings.Repeat("-", dashCount)+" ")
	fmt.Fprintln(r.out, InfoColorFG.Sprint(fileName))
}

// displayCodeSelection displays the selected lines of source text (with line
// numbers) and underlines the selected range with carets.
func (r *Reporter) displayCodeSelection(src string, span *TextSpan, isError bool) {
	allLines := strings.Split(src, "\n")
	if span.StartLine >= len(allLines) {
		return
	}

	endLine := min(span.EndLine, len(allLines)-1)
	lines := allLines[span.StartLine : endLine+1]

	// Calculate the whitespace to trim.
	minIndent := -1
	for _, line := range lines {
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	// Calculate the amount to pad line numbers by.
	maxLineNumWidth := len(strconv.Itoa(endLine+1)) + 1
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumWidth) + "v"

	caretColor := ErrorColorFG
	if !isError {
		caretColor = WarnColorFG
	}

	for i, line := range lines {
		fmt.Fprint(r.out, InfoColorFG.Sprint(fmt.Sprintf(lineNumFmtStr, i+span.StartLine+1)))
		fmt.Fprint(r.out, "|  ")
		fmt.Fprintln(r.out, line[minIndent:])

		// The first line is underlined from the start column and the last line
		// up to the end column; lines in between are underlined completely.
		caretStart := minIndent
		if i == 0 {
			caretStart = max(span.StartCol, minIndent)
		}

		caretEnd := len(line)
		if i == len(lines)-1 {
			caretEnd = min(span.EndCol, len(line))
		}

		caretCount := max(caretEnd-caretStart, 1)

		fmt.Fprint(r.out, strings.Repeat(" ", maxLineNumWidth), "|  ")
		fmt.Fprint(r.out, strings.Repeat(" ", caretStart-minIndent))
		fmt.Fprintln(r.out, caretColor.Sprint(strings.Repeat("^", caretCount)))
	}
}

// displayStdError displays a standard Go error.
func (r *Reporter) displayStdError(tag string, err error) {
	fmt.Fprint(r.out, ErrorStyleBG.Sprint(tag))
	fmt.Fprintln(r.out, ErrorColorFG.Sprint(" "+err.Error()))
}

// displayPhase displays the name of a phase of analysis.
func (r *Reporter) displayPhase(phase string) {
	fmt.Fprint(r.out, InfoStyleBG.Sprint("kresolve"))
	fmt.Fprintln(r.out, InfoColorFG.Sprint(" "+phase))
}

// displaySummary displays the closing summary of a run.
func (r *Reporter) displaySummary(fileCount int, elapsed time.Duration) {
	fmt.Fprintln(r.out)

	if r.errorCount == 0 {
		fmt.Fprint(r.out, SuccessStyleBG.Sprint("Success"))
		fmt.Fprint(r.out, SuccessColorFG.Sprintf(" analyzed %d file(s) in %.3fs", fileCount, elapsed.Seconds()))
	} else {
		fmt.Fprint(r.out, ErrorStyleBG.Sprint("Failure"))
		fmt.Fprint(r.out, ErrorColorFG.Sprintf(" analyzed %d file(s) in %.3fs", fileCount, elapsed.Seconds()))
	}

	fmt.Fprintf(r.out, " (%d error(s), %d warning(s))\n", r.errorCount, r.warningCount)
}
