package authflow

import (
	"context"
	"io"
	"net/http"

	"github.com/shandysiswandi/authflow/internal/authflow/outbound/api"
	"github.com/shandysiswandi/authflow/internal/authflow/outbound/artifact"
	"github.com/shandysiswandi/authflow/internal/authflow/outbound/console"
	"github.com/shandysiswandi/authflow/internal/authflow/outbound/mq"
	"github.com/shandysiswandi/authflow/internal/authflow/usecase"
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

type Dependency struct {
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Suffix     uid.NumberID               `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Output     io.Writer                  `validate:"required"`
	HTTPClient *http.Client
	// Messaging and Storage are nil when the matching report sink is disabled.
	Messaging messaging.Publisher
	Storage   storage.Storage
}

// Module runs the registration flow once per Run call.
type Module struct {
	uc *usecase.Usecase
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	apiCfg := api.Config{
		BaseURL:    dep.Config.GetString("api.base_url"),
		UserAgent:  dep.Config.GetString("api.user_agent"),
		Timeout:    dep.Config.GetSecond("api.timeout_seconds"),
		MaxRetries: uint64(dep.Config.GetUint("api.retry.max_attempts")),
		Backoff:    dep.Config.GetMillisecond("api.retry.backoff_ms"),
		HTTPClient: dep.HTTPClient,
	}
	if err := dep.Validator.Validate(apiCfg); err != nil {
		return nil, goerror.NewConfig(err, "invalid api configuration")
	}

	ucDep := usecase.Dependency{
		RepoAPI:    api.NewAPI(apiCfg, dep.Instrument),
		Transcript: console.NewConsole(dep.Output, dep.Config.GetInt("output.indent")),
		Validator:  dep.Validator,
		Config:     dep.Config,
		Suffix:     dep.Suffix,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	}
	if dep.Messaging != nil {
		ucDep.RepoMessaging = mq.NewMessaging(dep.Messaging, dep.Config.GetString("report.messaging.destination"), dep.Instrument)
	}
	if dep.Storage != nil {
		ucDep.RepoArtifact = artifact.NewArtifact(dep.Storage, artifact.Config{
			Bucket:        dep.Config.GetString("report.storage.bucket"),
			Prefix:        dep.Config.GetString("report.storage.prefix"),
			PresignExpiry: dep.Config.GetSecond("report.storage.presign_expiry_seconds"),
		}, dep.Instrument)
	}

	uc, err := usecase.New(ucDep)
	if err != nil {
		return nil, err
	}

	return &Module{uc: uc}, nil
}

// Run generates a fresh identity, runs the flow and hands the report to the
// configured sinks. The returned error decides the process exit code.
func (m *Module) Run(ctx context.Context) error {
	id, err := m.uc.NewIdentity(ctx)
	if err != nil {
		return err
	}

	report, err := m.uc.RunFlow(ctx, id)
	m.uc.PublishReport(ctx, report)

	return err
}
