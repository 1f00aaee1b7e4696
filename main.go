package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shandysiswandi/authflow/internal/app"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	application, err := app.New(ctx, app.Options{Args: args}) // Initialize the application
	if errors.Is(err, pflag.ErrHelp) {
		return goerror.ExitOK
	}
	if err != nil {
		slog.Error("failed to start authflow", "error", err)
		return goerror.ExitConfig
	}

	code := application.Run() // Run the flow once

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Flush report sinks and telemetry

	return code
}
