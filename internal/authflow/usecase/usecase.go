package usecase

import (
	"context"

	"github.com/shandysiswandi/authflow/internal/authflow/entity"
	"github.com/shandysiswandi/authflow/internal/pkg/clock"
	"github.com/shandysiswandi/authflow/internal/pkg/config"
	"github.com/shandysiswandi/authflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"github.com/shandysiswandi/authflow/internal/pkg/uid"
	"github.com/shandysiswandi/authflow/internal/pkg/validator"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type repoAPI interface {
	SendOTPRegister(ctx context.Context, in entity.SendOTPRequest) (entity.Response, error)
	VerifyOTPRegister(ctx context.Context, in entity.VerifyOTPRequest) (entity.Response, error)
	Login(ctx context.Context, in entity.LoginRequest) (entity.Response, error)
}

type repoMessaging interface {
	PublishFlowReport(ctx context.Context, report *entity.FlowReport) error
}

type repoArtifact interface {
	UploadTranscript(ctx context.Context, runID string, transcript []byte) (string, error)
}

// transcript renders the human readable run log.
type transcript interface {
	Configuration(id entity.Identity)
	StepStarted(step entity.Step)
	StepResponded(step entity.Step, resp entity.Response)
	StepPassed(step entity.Step, resp entity.Response)
	StepFailed(step entity.Step, err error)
	Summary(report *entity.FlowReport)
	Bytes() []byte
}

type Usecase struct {
	repoAPI       repoAPI
	repoMessaging repoMessaging
	repoArtifact  repoArtifact
	transcript    transcript
	validator     validator.Validator
	cfg           config.Config
	suffix        uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	stepDuration metric.Float64Histogram
	stepTotal    metric.Int64Counter
}

type Dependency struct {
	RepoAPI repoAPI
	// RepoMessaging and RepoArtifact are optional report sinks.
	RepoMessaging repoMessaging
	RepoArtifact  repoArtifact
	Transcript    transcript
	Validator     validator.Validator
	Config        config.Config
	Suffix        uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) (*Usecase, error) {
	meter := dep.Instrument.Meter("authflow.usecase")

	stepDuration, err := meter.Float64Histogram("authflow.step.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration of one flow step including the HTTP round trip."),
	)
	if err != nil {
		return nil, err
	}

	stepTotal, err := meter.Int64Counter("authflow.step.total",
		metric.WithDescription("Flow steps executed, by step and outcome."),
	)
	if err != nil {
		return nil, err
	}

	return &Usecase{
		repoAPI:       dep.RepoAPI,
		repoMessaging: dep.RepoMessaging,
		repoArtifact:  dep.RepoArtifact,
		transcript:    dep.Transcript,
		validator:     dep.Validator,
		cfg:           dep.Config,
		suffix:        dep.Suffix,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		stepDuration:  stepDuration,
		stepTotal:     stepTotal,
	}, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authflow.usecase").Start(ctx, name)
}
