package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// SIGINT/SIGTERM cancel the run; tegrastats and the CPU sampler stop early.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
