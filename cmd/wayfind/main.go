package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/wayfind-agent/wayfind/cmd"
	"github.com/wayfind-agent/wayfind/internal/observability"
)

const panicLogFile = "panic.log"

var osExit = os.Exit

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(0)
		}
		osExit(1)
	}
}

// handlePanic writes a crash report before the process dies, so a failed
// overnight run still leaves something to debug from.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	report := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := os.WriteFile(panicLogFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write panic log: %v\n%s\n", err, report)
		osExit(1)
		return
	}
	fmt.Fprintf(os.Stderr, "crash detected; details logged to %s\n", panicLogFile)
	osExit(1)
}
