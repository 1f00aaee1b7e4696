package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/authflow/internal/authflow/entity"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultBackoff   = 200 * time.Millisecond
	maxBackoff       = 5 * time.Second
	maxResponseBytes = 4 << 20
)

type Config struct {
	BaseURL    string `validate:"required,http_url"`
	UserAgent  string
	Timeout    time.Duration `validate:"gte=0"`
	MaxRetries uint64
	Backoff    time.Duration `validate:"gte=0"`
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// API calls the remote registration endpoints.
type API struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	maxRetries uint64
	backoff    time.Duration
	ins        instrument.Instrumentation
}

func NewAPI(cfg Config, ins instrument.Instrumentation) *API {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	return &API{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		ins:        ins,
	}
}

func (a *API) SendOTPRegister(ctx context.Context, in entity.SendOTPRequest) (entity.Response, error) {
	return a.post(ctx, entity.StepSendOTP, in)
}

func (a *API) VerifyOTPRegister(ctx context.Context, in entity.VerifyOTPRequest) (entity.Response, error) {
	return a.post(ctx, entity.StepVerifyOTP, in)
}

func (a *API) Login(ctx context.Context, in entity.LoginRequest) (entity.Response, error) {
	return a.post(ctx, entity.StepLogin, in)
}

// post sends payload as JSON. Only transport errors are retried; any HTTP
// answer, whatever its status, is returned to the caller as is.
func (a *API) post(ctx context.Context, step entity.Step, payload any) (entity.Response, error) {
	ctx, span := a.ins.Tracer("authflow.outbound.api").Start(ctx, "POST "+step.Path())
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.Response{}, err
	}

	url := a.baseURL + step.Path()
	span.SetAttributes(attribute.String("http.url", url))

	var (
		resp    entity.Response
		attempt int
	)
	b := retry.WithMaxRetries(a.maxRetries, retry.WithCappedDuration(maxBackoff, retry.NewFibonacci(a.backoff)))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var errDo error
		resp, errDo = a.do(ctx, url, body)
		if errDo == nil {
			return nil
		}
		if ctx.Err() != nil || attempt > int(a.maxRetries) {
			return errDo
		}

		slog.WarnContext(ctx, "request failed, retrying", "step", step, "attempt", attempt, "error", errDo)
		return retry.RetryableError(errDo)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.Response{}, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (a *API) do(ctx context.Context, url string, body []byte) (entity.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return entity.Response{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		req.Header.Set(instrument.CorrelationHeader, cID)
	}

	res, err := a.client.Do(req)
	if err != nil {
		return entity.Response{}, err
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return entity.Response{}, fmt.Errorf("read response body: %w", err)
	}

	return entity.Response{StatusCode: res.StatusCode, Body: data}, nil
}
