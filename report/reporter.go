package report

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter is responsible for reporting diagnostics, errors, and other kinds of
// messages to the user.  The reporter respects its log level and is
// synchronized: its methods can be safely called from multiple goroutines.
// There is one reporter per analysis session.
type Reporter struct {
	// The mutex used to synchonize different report method calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The writer that all output is displayed to.
	out io.Writer

	// The number of errors and warnings reported so far.
	errorCount, warningCount int

	// The time at which the reporter was created.
	startTime time.Time
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all messages to the user (default).
)

// LogLevelNames maps the names accepted on the command line and in module
// files to log levels.
var LogLevelNames = map[string]int{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"warn":    LogLevelWarn,
	"verbose": LogLevelVerbose,
}

// ParseLogLevel converts a log level name into a log level.
func ParseLogLevel(name string) (int, error) {
	if level, ok := LogLevelNames[name]; ok {
		return level, nil
	}

	return 0, fmt.Errorf("unknown log level: %q", name)
}

// NewReporter creates a new reporter writing to out at the given log level.
func NewReporter(logLevel int, out io.Writer) *Reporter {
	return &Reporter{
		m:         &sync.Mutex{},
		logLevel:  logLevel,
		out:       out,
		startTime: time.Now(),
	}
}

// LogLevel returns the reporter's log level.
func (r *Reporter) LogLevel() int {
	return r.logLevel
}

// -----------------------------------------------------------------------------

// ReportDiagnostics displays the diagnostics reported for a single source file.
// The path is the display path of the file and src is its text.  Errors are
// counted even when they are not displayed.
func (r *Reporter) ReportDiagnostics(path string, src []byte, diags []*Diagnostic) {
	r.m.Lock()
	defer r.m.Unlock()

	for _, diag := range diags {
		if diag.IsError() {
			r.errorCount++

			if r.logLevel >= LogLevelError {
				r.displayDiagnostic(path, src, diag)
			}
		} else {
			r.warningCount++

			if r.logLevel >= LogLevelWarn {
				r.displayDiagnostic(path, src, diag)
			}
		}
	}
}

// ReportStdError reports a standard Go error: generally a failure to load a
// file or configuration.
func (r *Reporter) ReportStdError(tag string, err error) {
	r.m.Lock()
	defer r.m.Unlock()

	r.errorCount++

	if r.logLevel >= LogLevelError {
		r.displayStdError(tag, err)
	}
}

// LogPhase reports the start of a phase of analysis.  It is only displayed in
// verbose mode.
func (r *Reporter) LogPhase(phase string, args ...any) {
	if r.logLevel == LogLevelVerbose {
		r.m.Lock()
		defer r.m.Unlock()

		r.displayPhase(fmt.Sprintf(phase, args...))
	}
}

// ReportSummary reports the concluding message of a run.
func (r *Reporter) ReportSummary(fileCount int) {
	if r.logLevel == LogLevelVerbose {
		r.m.Lock()
		defer r.m.Unlock()

		r.displaySummary(fileCount, time.Since(r.startTime))
	}
}

// AnyErrors returns whether or not any errors were reported.
func (r *Reporter) AnyErrors() bool {
	r.m.Lock()
	defer r.m.Unlock()

	return r.errorCount > 0
}

// Counts returns the number of errors and warnings reported.
func (r *Reporter) Counts() (int, int) {
	r.m.Lock()
	defer r.m.Unlock()

	return r.errorCount, r.warningCount
}
