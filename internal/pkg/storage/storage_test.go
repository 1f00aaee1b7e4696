package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDriverUnknown(t *testing.T) {
	st, err := NewFromDriver(context.Background(), "ftp", FactoryOptions{})
	assert.Nil(t, st)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestMinIOPresignGet(t *testing.T) {
	st, err := NewFromDriver(context.Background(), " MinIO ", FactoryOptions{
		MinIO: MinIOOptions{
			Endpoint:  "127.0.0.1:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Region:    "us-east-1",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// Presigning is computed locally when the region is known.
	u, err := st.PresignGet(context.Background(), "authflow", "runs/abc.log", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, u, "http://127.0.0.1:9000/authflow/runs/abc.log?")
	assert.Contains(t, u, "X-Amz-Signature=")
}

func TestS3PresignGet(t *testing.T) {
	st, err := NewS3(context.Background(), S3Options{
		Endpoint:     "http://127.0.0.1:4566",
		AccessKey:    "test",
		SecretKey:    "test",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	u, err := st.PresignGet(context.Background(), "authflow", "runs/abc.log", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "http://127.0.0.1:4566/authflow/runs/abc.log?")
	assert.Contains(t, u, "X-Amz-Expires=900")
}

func TestGCSPresignWithoutSigner(t *testing.T) {
	g := &GCSAdapter{}
	_, err := g.PresignGet(context.Background(), "b", "k", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSigner)
}
