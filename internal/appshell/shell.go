// Package appshell owns the process-level concerns of the binary: signal
// handling, exit codes and the os.Args/os.Stdout plumbing, so the app layer
// stays testable with plain writers.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Main runs the app with a context that is canceled on SIGINT/SIGTERM. An
// interrupted run that would otherwise report success exits 130, matching
// shell convention. External tool processes already started are not killed
// on cancellation; the scheduler drains them before run returns.
func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	argv := os.Args[1:]
	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	code := run(ctx, argv, os.Stdout, os.Stderr)
	// Normalize cancellation exit code.
	if ctx.Err() != nil && code == 0 {
		code = 130
	}

	stop()
	os.Exit(code)
}
