package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/shandysiswandi/authflow/internal/authflow"
	"github.com/shandysiswandi/authflow/internal/pkg/clock"
	"github.com/shandysiswandi/authflow/internal/pkg/config"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
	"github.com/shandysiswandi/authflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"github.com/shandysiswandi/authflow/internal/pkg/messaging"
	"github.com/shandysiswandi/authflow/internal/pkg/storage"
	"github.com/shandysiswandi/authflow/internal/pkg/uid"
	"github.com/shandysiswandi/authflow/internal/pkg/validator"
)

// Options carries process level inputs. Nil writers fall back to os.Stdout
// and os.Stderr.
type Options struct {
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
	// HTTPClient replaces the client used to reach the auth API.
	HTTPClient *http.Client
}

// App wires dependencies and manages the lifecycle of a single run.
type App struct {
	ctx  context.Context
	opts Options

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID
	suffix    uid.NumberID

	// resources
	messaging messaging.Publisher
	storage   storage.Storage

	// modules
	flow *authflow.Module

	//
	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application. The returned error is a bootstrap failure;
// on error every resource opened so far is already released.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &App{ctx: ctx, opts: opts}

	for _, step := range []struct {
		name string
		fn   func() error
	}{
		{name: "config", fn: app.initConfig},
		{name: "instrument", fn: app.initInstrument},
		{name: "libraries", fn: app.initLibraries},
		{name: "messaging", fn: app.initMessaging},
		{name: "storage", fn: app.initStorage},
		{name: "modules", fn: app.initModules},
	} {
		if err := step.fn(); err != nil {
			app.Stop(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	return app, nil
}

// Run executes the flow once and returns the process exit code.
func (a *App) Run() int {
	ctx := a.ctx
	slog.InfoContext(ctx, "auth flow starting",
		"base_url", a.config.GetString("api.base_url"),
		"config_file", a.config.ConfigFile(),
	)

	err := a.flow.Run(ctx)
	code := goerror.ExitCode(err)
	if err != nil {
		slog.ErrorContext(ctx, "auth flow finished with failure", "exit_code", code, "error", err)
		return code
	}

	slog.InfoContext(ctx, "auth flow finished", "exit_code", code)
	return code
}

// Stop waits for background report sinks and closes resources, most
// recently opened first.
func (a *App) Stop(ctx context.Context) {
	if a.goroutine != nil {
		slog.DebugContext(ctx, "waiting for all goroutine to finish")
		if err := a.goroutine.Wait(); err != nil {
			slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", a.closers[i].name, "error", err)
		}
	}
	a.closers = nil
}

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}
