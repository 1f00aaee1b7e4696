package artifact

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"github.com/shandysiswandi/authflow/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
)

type Config struct {
	Bucket string
	Prefix string
	// PresignExpiry is how long the returned download link stays valid.
	// Zero disables presigning.
	PresignExpiry time.Duration
}

type Artifact struct {
	client storage.Storage
	cfg    Config
	ins    instrument.Instrumentation
}

func NewArtifact(client storage.Storage, cfg Config, ins instrument.Instrumentation) *Artifact {
	return &Artifact{client: client, cfg: cfg, ins: ins}
}

// UploadTranscript stores transcript as <prefix>/<runID>.log and returns a
// download link, or bucket/key when no link can be signed.
func (a *Artifact) UploadTranscript(ctx context.Context, runID string, transcript []byte) (string, error) {
	ctx, span := a.ins.Tracer("authflow.outbound.artifact").Start(ctx, "UploadTranscript")
	defer span.End()

	key := path.Join(a.cfg.Prefix, runID+".log")
	info, err := a.client.PutObject(ctx, a.cfg.Bucket, key, bytes.NewReader(transcript), storage.PutOptions{
		Size:        int64(len(transcript)),
		ContentType: "text/plain; charset=utf-8",
		Metadata:    map[string]string{"run-id": runID},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	location := path.Join(info.Bucket, info.Key)
	if a.cfg.PresignExpiry <= 0 {
		return location, nil
	}

	url, err := a.client.PresignGet(ctx, info.Bucket, info.Key, a.cfg.PresignExpiry)
	if err != nil {
		if !errors.Is(err, storage.ErrMissingSigner) {
			slog.WarnContext(ctx, "failed to presign transcript url", "key", info.Key, "error", err)
		}
		return location, nil
	}

	return url, nil
}
