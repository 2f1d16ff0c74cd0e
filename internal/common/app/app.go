package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/mrscrape/docbench/internal/common/logging"
)

// CreateContextWithShutdown returns a context that will report done when a SIGINT or SIGTERM is received.
// A benchmark in progress sees the cancellation at its next phase boundary or in its in-flight tasks.
// The returned cancel func releases the signal handler.
func CreateContextWithShutdown() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.Warnf("received %s, cancelling benchmark", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
