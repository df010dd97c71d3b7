package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return
	}
	if code := exitCode(err); code != 0 {
		if !silentExit(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

// exitCode maps a command error to the process exit code: the carried code
// for exitCodeError, 130 for interrupts, 1 otherwise.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit exitCodeError
	if errors.As(err, &exit) {
		return exit.code
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

// silentExit reports errors the command has already rendered itself.
func silentExit(err error) bool {
	var exit exitCodeError
	return errors.As(err, &exit) || errors.Is(err, context.Canceled)
}

// exitCodeError carries a process exit code without printing anything; the
// command has already reported the outcome.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
