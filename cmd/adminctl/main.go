// Command adminctl manages marketplace users through the admin API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/marketplace-admin/console/internal/cli"
	"github.com/marketplace-admin/console/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Log: logger.Init(logger.Options{Level: "debug", Pretty: true, App: "adminctl"}),
	}
	if err := app.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
