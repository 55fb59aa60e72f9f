// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/routeflow/cmd"
)

// osExit allows mocking os.Exit in tests.
var osExit = os.Exit

// main is the entry point for the routeflow CLI.
func main() {
	// Interrupts cancel the run; completed scenarios are still reported.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		osExit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}
