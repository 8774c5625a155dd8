// Command metamirror mirrors a bulk metadata dump into a local analytical
// workspace: torrent fetch, gzip expansion, Parquet conversion, and DuckDB
// view registration.
//
// With no subcommand every stage runs in order using the built-in defaults,
// so a bare "metamirror" runs the whole import.
package main

import (
	"errors"
	"fmt"
	"os"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1 // Pipeline failed under --strict, or check found problems.
	exitUsage  = 2 // Invalid flags or configuration.
)

// exitError carries an exit status out of a cobra RunE.
type exitError struct {
	code int
	err  error // Already logged when nil.
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the command tree and maps the outcome to an exit status.
func execute(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(rootCmd.ErrOrStderr(), "metamirror: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "metamirror: %v\n", err)
	return exitUsage
}
