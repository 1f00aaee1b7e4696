package app

import (
	"log/slog"

	"github.com/shandysiswandi/authflow/internal/authflow"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
)

func (a *App) initModules() error {
	flow, err := authflow.New(authflow.Dependency{
		Config:     a.config,
		Instrument: a.ins,
		Validator:  a.validator,
		Clock:      a.clock,
		UUID:       a.uuid,
		Suffix:     a.suffix,
		Goroutine:  a.goroutine,
		Output:     a.opts.Stdout,
		HTTPClient: a.opts.HTTPClient,
		Messaging:  a.messaging,
		Storage:    a.storage,
	})
	if err != nil {
		slog.ErrorContext(a.ctx, "failed to init module authflow", "error", err)
		if goerror.ExitCode(err) != goerror.ExitConfig {
			err = goerror.NewConfig(err, "invalid module dependency")
		}
		return err
	}

	a.flow = flow
	return nil
}
