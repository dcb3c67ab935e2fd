// Command envgen regenerates conda and pip environment files from pyproject.toml.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	xlog "github.com/sciamlab/envgen/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	xlog.Configure(xlog.Config{})
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger := xlog.Base()
		logger.Error().Err(err).Msg("envgen failed")
		stop()
		os.Exit(1)
	}
}
