package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"

	"kresolve/common"
	"kresolve/mods"
	"kresolve/report"

	"github.com/ComedicChimera/olive"
	"github.com/pterm/pterm"
)

// defaultLogLevel is the log level used when neither the command line nor the
// module configures one.
const defaultLogLevel = "verbose"

// Execute runs the main `kresolve` application and returns its exit code.
func Execute(args []string) int {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("kresolve", "kresolve resolves the calls of Kotlin modules", true)
	cli.AddSelectorArg("loglevel", "ll", "the log level", false, []string{"silent", "error", "warn", "verbose"})

	checkCmd := cli.AddSubcommand("check", "analyze a module and report its diagnostics", true)
	checkCmd.AddPrimaryArg("module-path", "the path to the module to check", true)
	checkCmd.AddFlag("dump", "d", "print the resolved calls of every file")

	watchCmd := cli.AddSubcommand("watch", "check a module whenever its files change", true)
	watchCmd.AddPrimaryArg("module-path", "the path to the module to watch", true)

	modCmd := cli.AddSubcommand("mod", "manage modules", true)
	modInitCmd := modCmd.AddSubcommand("init", "initialize a module", true)
	modInitCmd.AddPrimaryArg("module-name", "the name of the new module", true)
	modInitCmd.AddStringArg("path", "p", "the module directory: defaults to the working directory", false)

	cli.AddSubcommand("version", "print the kresolve version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		newReporter(report.LogLevelError).ReportStdError("CLI Usage Error", err)
		return 2
	}

	logLevel := ""
	if lvl, ok := result.Arguments["loglevel"]; ok {
		logLevel = lvl.(string)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "check":
		return execCheckCommand(ctx, subResult, logLevel)
	case "watch":
		return execWatchCommand(ctx, subResult, logLevel)
	case "mod":
		return execModCommand(subResult, logLevel)
	case "version":
		pterm.Println(pterm.Bold.Sprint("kresolve version ") + common.KresVersion)
	}

	return 0
}

// execModCommand executes the `mod` subcommand and its subcommands.
func execModCommand(result *olive.ArgParseResult, logLevel string) int {
	subcmdName, subResult, _ := result.Subcommand()

	switch subcmdName {
	case "init":
		reporter := newReporter(levelOf(logLevel, ""))
		modName, _ := subResult.PrimaryArg()

		path, ok := subResult.Arguments["path"]
		if !ok {
			wd, err := os.Getwd()
			if err != nil {
				reporter.ReportStdError("Path Error", err)
				return 1
			}

			path = wd
		}

		if err := mods.InitModule(modName, path.(string)); err != nil {
			reporter.ReportStdError("Module Init Error", err)
			return 1
		}
	}

	return 0
}

// -----------------------------------------------------------------------------

// loadModule loads the module at the given path along with a reporter for its
// log level.  An explicit log level takes precedence over the module's.
func loadModule(moduleRelPath, logLevel string) (*mods.Module, *report.Reporter, error) {
	reporter := newReporter(levelOf(logLevel, ""))

	modulePath, err := filepath.Abs(moduleRelPath)
	if err != nil {
		reporter.ReportStdError("Path Error", err)
		return nil, nil, err
	}

	mod, err := mods.LoadModule(modulePath)
	if err != nil {
		reporter.ReportStdError("Module Load Error", err)
		return nil, nil, err
	}

	return mod, newReporter(levelOf(logLevel, mod.LogLevel)), nil
}

// levelOf returns the log level selected by the command line or else by the
// module.  The names are validated beforehand.
func levelOf(cliLevel, modLevel string) int {
	name := defaultLogLevel
	if cliLevel != "" {
		name = cliLevel
	} else if modLevel != "" {
		name = modLevel
	}

	level, err := report.ParseLogLevel(name)
	if err != nil {
		return report.LogLevelVerbose
	}

	return level
}

// newReporter creates a reporter displaying to the standard output.
func newReporter(level int) *report.Reporter {
	return report.NewReporter(level, os.Stdout)
}

// exitCodeOf returns the exit code of a failed command.
func exitCodeOf(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}

	return 1
}
