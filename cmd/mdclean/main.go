package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"mdclean/internal/cleanup"
	"mdclean/internal/cli"
	"mdclean/internal/exitcodes"
	"mdclean/internal/prompt"
	"mdclean/internal/report"
)

// Populated by -ldflags at build time
var (
	version = ""
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersionInfo(version, commit, date)
	err := cli.Execute(ctx)
	stop()

	os.Exit(exitCode(err, report.New(os.Stdout)))
}

func exitCode(err error, rep *report.Reporter) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.Is(err, cleanup.ErrInterrupted), errors.Is(err, prompt.ErrInterrupted), errors.Is(err, context.Canceled):
		rep.Interrupted()
		return exitcodes.Interrupted
	default:
		rep.UnexpectedError(err)
		return exitcodes.RuntimeError
	}
}
