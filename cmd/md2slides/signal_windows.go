//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownSignals cancel an in-flight batch. Windows only delivers Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}

// notifyContext returns a context canceled on the first shutdown signal.
// Call stop() to release resources.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
