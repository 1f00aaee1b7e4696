package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authflow/internal/authflow/entity"
)

// PublishReport hands the finished run to the configured sinks. Sinks run in
// the background; callers wait on the goroutine manager before exiting.
// Sink failures are logged and never change the run result.
func (s *Usecase) PublishReport(ctx context.Context, report *entity.FlowReport) {
	ctx, span := s.startSpan(ctx, "PublishReport")
	defer span.End()

	if s.repoMessaging != nil {
		s.goroutine.Go(ctx, "publish-flow-report", func(ctx context.Context) error {
			if err := s.repoMessaging.PublishFlowReport(ctx, report); err != nil {
				slog.ErrorContext(ctx, "failed to publish flow report", "run_id", report.RunID, "error", err)
				return err
			}

			slog.InfoContext(ctx, "flow report published", "run_id", report.RunID)
			return nil
		})
	}

	if s.repoArtifact != nil {
		data := s.transcript.Bytes()
		s.goroutine.Go(ctx, "upload-transcript", func(ctx context.Context) error {
			location, err := s.repoArtifact.UploadTranscript(ctx, report.RunID, data)
			if err != nil {
				slog.ErrorContext(ctx, "failed to upload transcript", "run_id", report.RunID, "error", err)
				return err
			}

			slog.InfoContext(ctx, "transcript uploaded", "run_id", report.RunID, "location", location)
			return nil
		})
	}
}
