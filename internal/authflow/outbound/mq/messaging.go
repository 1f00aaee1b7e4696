package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/authflow/internal/authflow/entity"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"github.com/shandysiswandi/authflow/internal/pkg/messaging"
	"github.com/shandysiswandi/authflow/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client      messaging.Publisher
	destination string
	ins         instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, destination string, ins instrument.Instrumentation) *Messaging {
	if destination == "" {
		destination = event.FlowReportDestination
	}
	return &Messaging{client: client, destination: destination, ins: ins}
}

func (m *Messaging) PublishFlowReport(ctx context.Context, report *entity.FlowReport) error {
	ctx, span := m.ins.Tracer("authflow.outbound.mq").Start(ctx, "PublishFlowReport")
	defer span.End()

	body, err := json.Marshal(toMessage(report))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if cID == "" {
		cID = report.RunID
	}
	if _, err := m.client.Publish(ctx, m.destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(report.RunID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// toMessage flattens report for the wire. The password never leaves the process.
func toMessage(report *entity.FlowReport) event.FlowReportMessage {
	msg := event.FlowReportMessage{
		RunID:      report.RunID,
		BaseURL:    report.BaseURL,
		Email:      report.Identity.Email,
		Phone:      report.Identity.Phone,
		Passed:     report.Passed(),
		StartedAt:  report.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt: report.FinishedAt.UTC().Format(time.RFC3339Nano),
		DurationMS: report.Duration().Milliseconds(),
		Steps: lo.Map(report.Steps, func(s entity.StepReport, _ int) event.FlowReportStepMsg {
			return event.FlowReportStepMsg{
				Step:       s.Step.String(),
				StatusCode: s.StatusCode,
				Outcome:    s.Outcome.String(),
				DurationMS: s.Duration.Milliseconds(),
				Error:      s.Error,
			}
		}),
	}
	if failed, ok := report.Failed(); ok {
		msg.FailedStep = failed.Step.String()
	}
	return msg
}
