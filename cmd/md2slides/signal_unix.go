//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals cancel an in-flight batch; files already written stay.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// notifyContext returns a context canceled on the first shutdown signal.
// Call stop() to release resources.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
