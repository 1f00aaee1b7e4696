package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/authflow/internal/authflow/entity"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var errInvalidJSON = errors.New("body is not valid JSON")

// RunFlow registers id through the OTP flow and logs in with it. Steps run
// strictly in order and the first failure stops the run. The returned report
// is never nil; the error is a *goerror.Error describing the failed step.
func (s *Usecase) RunFlow(ctx context.Context, id entity.Identity) (*entity.FlowReport, error) {
	runID := instrument.GetCorrelationID(ctx)
	if runID == "" {
		runID = s.uuid.Generate()
		ctx = instrument.SetCorrelationID(ctx, runID)
	}

	ctx, span := s.startSpan(ctx, "RunFlow")
	defer span.End()

	report := entity.NewFlowReport(runID, s.cfg.GetString("api.base_url"), id, s.clock.Now())
	s.transcript.Configuration(id)

	err := s.runSteps(ctx, report, id)
	report.FinishedAt = s.clock.Now()
	s.transcript.Summary(report)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "auth flow failed", "email", id.Email, "duration", report.Duration(), "error", err)
		return report, err
	}

	slog.InfoContext(ctx, "auth flow passed", "email", id.Email, "duration", report.Duration())
	return report, nil
}

func (s *Usecase) runSteps(ctx context.Context, report *entity.FlowReport, id entity.Identity) error {
	var code json.RawMessage

	err := s.runStep(ctx, report, entity.StepSendOTP,
		func(ctx context.Context) (entity.Response, error) {
			return s.repoAPI.SendOTPRegister(ctx, entity.SendOTPRequest{NoWhatsapp: id.Phone})
		},
		func(resp entity.Response) error {
			c, ok := resp.Code()
			if !ok {
				return goerror.NewMissingField(entity.StepSendOTP.String(), "data.code")
			}
			code = c
			return nil
		},
	)
	if err != nil {
		return err
	}

	err = s.runStep(ctx, report, entity.StepVerifyOTP,
		func(ctx context.Context) (entity.Response, error) {
			return s.repoAPI.VerifyOTPRegister(ctx, entity.VerifyOTPRequest{
				NoWhatsapp: id.Phone,
				Code:       code,
				Email:      id.Email,
				Nama:       id.Name,
				Password:   id.Password,
				Type:       id.Type,
			})
		}, nil,
	)
	if err != nil {
		return err
	}

	err = s.runStep(ctx, report, entity.StepLogin,
		func(ctx context.Context) (entity.Response, error) {
			return s.repoAPI.Login(ctx, entity.LoginRequest{Email: id.Email, Password: id.Password})
		}, nil,
	)
	return err
}

// runStep performs one request, prints its outcome and records it on report.
// extra runs only when the response already reported success.
func (s *Usecase) runStep(
	ctx context.Context,
	report *entity.FlowReport,
	step entity.Step,
	call func(context.Context) (entity.Response, error),
	extra func(entity.Response) error,
) error {
	ctx, span := s.startSpan(ctx, "Step "+step.String())
	defer span.End()

	s.transcript.StepStarted(step)
	start := s.clock.Now()

	resp, err := call(ctx)
	if err != nil {
		err = goerror.NewTransport(step.String(), err)
	} else {
		s.transcript.StepResponded(step, resp)
		err = checkResponse(step, resp)
		if err == nil && extra != nil {
			err = extra(resp)
		}
	}

	result := entity.StepReport{
		Step:       step,
		StatusCode: resp.StatusCode,
		Outcome:    entity.OutcomePassed,
		Duration:   s.clock.Since(start),
	}
	if err != nil {
		result.Outcome = entity.OutcomeFailed
		result.Error = err.Error()
	}
	report.Record(result)
	s.recordStep(ctx, result)

	span.SetAttributes(
		attribute.String("step", step.String()),
		attribute.Int("http.status_code", resp.StatusCode),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "step failed", "step", step, "status_code", resp.StatusCode, "response", resp.Body, "error", err)
		s.transcript.StepFailed(step, err)
		return err
	}

	slog.InfoContext(ctx, "step passed", "step", step, "status_code", resp.StatusCode, "duration", result.Duration)
	s.transcript.StepPassed(step, resp)
	return nil
}

func checkResponse(step entity.Step, resp entity.Response) error {
	if !resp.Valid() {
		return goerror.NewParse(step.String(), errInvalidJSON)
	}
	if !resp.HasSuccess() {
		return goerror.NewMissingField(step.String(), "success")
	}
	if !resp.Success() {
		return goerror.NewStep(step.String(), resp.Message())
	}
	return nil
}

func (s *Usecase) recordStep(ctx context.Context, res entity.StepReport) {
	attrs := metric.WithAttributes(
		attribute.String("step", res.Step.String()),
		attribute.String("outcome", res.Outcome.String()),
	)
	s.stepDuration.Record(ctx, float64(res.Duration)/1e6, attrs)
	s.stepTotal.Add(ctx, 1, attrs)
}
