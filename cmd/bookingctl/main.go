// Command bookingctl runs the operator diagnostics against the configured
// stores without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iliyamo/booking-resolver/internal/app"
	"github.com/iliyamo/booking-resolver/internal/config"
	"github.com/iliyamo/booking-resolver/internal/logging"
)

var Version = "dev"

func main() {
	cfg := config.LoadTooling()
	log := logging.New(false)
	defer func() { _ = log.Sync() }()

	open := func(ctx context.Context) (*app.App, error) { return app.New(ctx, cfg, log) }
	if err := newRootCmd(open, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
