package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client *gcs.Client
	signer *GCSSigner
}

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// Client provides an existing GCS client; the fields below are ignored when set.
	Client *gcs.Client
	// CredentialsJSON is a service account key. Empty uses Application Default Credentials.
	CredentialsJSON []byte
	// Endpoint overrides the API endpoint, e.g. for fake-gcs-server.
	Endpoint string
	// WithoutAuth disables authentication, for emulators only.
	WithoutAuth bool
	// GoogleAccessID is the service account access ID for signing.
	GoogleAccessID string
	// PrivateKey is the service account private key for signing.
	PrivateKey []byte
}

// GCSSigner holds credentials for signed URL generation.
type GCSSigner struct {
	GoogleAccessID string
	PrivateKey     []byte
}

// NewGCS constructs a GCS adapter with optional signing support.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client := opts.Client
	if client == nil {
		clientOpts, err := gcsClientOptions(ctx, opts)
		if err != nil {
			return nil, err
		}

		created, err := gcs.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		client = created
	}

	var signer *GCSSigner
	if opts.GoogleAccessID != "" && len(opts.PrivateKey) > 0 {
		signer = &GCSSigner{
			GoogleAccessID: opts.GoogleAccessID,
			PrivateKey:     opts.PrivateKey,
		}
	}

	return &GCSAdapter{client: client, signer: signer}, nil
}

func gcsClientOptions(ctx context.Context, opts GCSOptions) ([]option.ClientOption, error) {
	var out []option.ClientOption
	if opts.WithoutAuth {
		out = append(out, option.WithoutAuthentication())
	} else if len(opts.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		out = append(out, option.WithCredentials(creds))
	}
	if opts.Endpoint != "" {
		out = append(out, option.WithEndpoint(opts.Endpoint))
	}
	return out, nil
}

// PutObject stores data in GCS and returns metadata.
func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	writer := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	if opts.ContentType != "" {
		writer.ContentType = opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		writer.Metadata = opts.Metadata
	}

	if _, err := io.Copy(writer, r); err != nil {
		// Close aborts the upload; the copy error is the one worth reporting.
		_ = writer.Close()
		return ObjectInfo{}, err
	}
	if err := writer.Close(); err != nil {
		return ObjectInfo{}, err
	}

	attrs := writer.Attrs()
	if attrs == nil {
		return ObjectInfo{
			Bucket:      bucket,
			Key:         key,
			Size:        opts.Size,
			ContentType: opts.ContentType,
			Metadata:    opts.Metadata,
		}, nil
	}

	return ObjectInfo{
		Bucket:      attrs.Bucket,
		Key:         attrs.Name,
		Size:        attrs.Size,
		ETag:        attrs.Etag,
		ContentType: attrs.ContentType,
		Metadata:    attrs.Metadata,
	}, nil
}

// PresignGet returns a signed URL for downloading from GCS.
func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.signer == nil {
		return "", ErrMissingSigner
	}
	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.signer.GoogleAccessID,
		PrivateKey:     g.signer.PrivateKey,
		Scheme:         gcs.SigningSchemeV4,
	})
}

// Close releases the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
