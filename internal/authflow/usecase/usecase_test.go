package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authflow/internal/authflow/entity"
	"github.com/shandysiswandi/authflow/internal/pkg/clock"
	"github.com/shandysiswandi/authflow/internal/pkg/config"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
	"github.com/shandysiswandi/authflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"github.com/shandysiswandi/authflow/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sendOTP func(context.Context, entity.SendOTPRequest) (entity.Response, error)
	verify  func(context.Context, entity.VerifyOTPRequest) (entity.Response, error)
	login   func(context.Context, entity.LoginRequest) (entity.Response, error)

	calls []entity.Step
}

func (f *fakeAPI) SendOTPRegister(ctx context.Context, in entity.SendOTPRequest) (entity.Response, error) {
	f.calls = append(f.calls, entity.StepSendOTP)
	return f.sendOTP(ctx, in)
}

func (f *fakeAPI) VerifyOTPRegister(ctx context.Context, in entity.VerifyOTPRequest) (entity.Response, error) {
	f.calls = append(f.calls, entity.StepVerifyOTP)
	return f.verify(ctx, in)
}

func (f *fakeAPI) Login(ctx context.Context, in entity.LoginRequest) (entity.Response, error) {
	f.calls = append(f.calls, entity.StepLogin)
	return f.login(ctx, in)
}

type fakeTranscript struct {
	events []string
}

func (f *fakeTranscript) Configuration(id entity.Identity) {
	f.events = append(f.events, "config "+id.Email)
}

func (f *fakeTranscript) StepStarted(step entity.Step) {
	f.events = append(f.events, "start "+step.String())
}

func (f *fakeTranscript) StepResponded(step entity.Step, resp entity.Response) {
	f.events = append(f.events, fmt.Sprintf("respond %s %d", step, resp.StatusCode))
}

func (f *fakeTranscript) StepPassed(step entity.Step, _ entity.Response) {
	f.events = append(f.events, "pass "+step.String())
}

func (f *fakeTranscript) StepFailed(step entity.Step, _ error) {
	f.events = append(f.events, "fail "+step.String())
}

func (f *fakeTranscript) Summary(report *entity.FlowReport) {
	f.events = append(f.events, fmt.Sprintf("summary %t", report.Passed()))
}

func (f *fakeTranscript) Bytes() []byte {
	return []byte("transcript")
}

type fakeMessaging struct {
	mu      sync.Mutex
	err     error
	reports []*entity.FlowReport
}

func (f *fakeMessaging) PublishFlowReport(_ context.Context, report *entity.FlowReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return f.err
}

type fakeArtifact struct {
	mu      sync.Mutex
	err     error
	uploads map[string][]byte
}

func (f *fakeArtifact) UploadTranscript(_ context.Context, runID string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[runID] = data
	return "mem://" + runID, f.err
}

type fixedNumber int64

func (n fixedNumber) Generate() int64 { return int64(n) }

type fixedString string

func (s fixedString) Generate() string { return string(s) }

var testIdentity = entity.Identity{
	Email:    "test_flow_53281@test.com",
	Phone:    "6281234567890",
	Password: "password123",
	Name:     "Test User",
	Type:     "user",
}

func okResponse(body string) func() (entity.Response, error) {
	return func() (entity.Response, error) {
		return entity.Response{StatusCode: 200, Body: []byte(body)}, nil
	}
}

func newTestConfig(t *testing.T, yaml string) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml), map[string]any{
		"api.base_url":            "http://localhost:8000/api",
		"identity.email_template": "test_flow_%d@test.com",
		"identity.phone":          "6281234567890",
		"identity.password":       "password123",
		"identity.name":           "Test User",
		"identity.type":           "user",
	})
	require.NoError(t, err)
	return cfg
}

type harness struct {
	uc        *Usecase
	api       *fakeAPI
	script    *fakeTranscript
	msg       *fakeMessaging
	artifact  *fakeArtifact
	goroutine *goroutine.Manager
}

func newHarness(t *testing.T, yaml string) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	h := &harness{
		api: &fakeAPI{
			sendOTP: func(context.Context, entity.SendOTPRequest) (entity.Response, error) {
				return okResponse(`{"success": true, "data": {"code": "482913"}}`)()
			},
			verify: func(context.Context, entity.VerifyOTPRequest) (entity.Response, error) {
				return okResponse(`{"success": true, "message": "Account created"}`)()
			},
			login: func(context.Context, entity.LoginRequest) (entity.Response, error) {
				return okResponse(`{"success": true, "data": {"token": "t"}}`)()
			},
		},
		script:    &fakeTranscript{},
		msg:       &fakeMessaging{},
		artifact:  &fakeArtifact{},
		goroutine: goroutine.NewManager(2),
	}

	h.uc, err = New(Dependency{
		RepoAPI:       h.api,
		RepoMessaging: h.msg,
		RepoArtifact:  h.artifact,
		Transcript:    h.script,
		Validator:     v,
		Config:        newTestConfig(t, yaml),
		Suffix:        fixedNumber(53281),
		UUID:          fixedString("run-1"),
		Clock:         clock.Fixed{At: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), Step: 25 * time.Millisecond},
		Instrument:    instrument.NewNoop(),
		Goroutine:     h.goroutine,
	})
	require.NoError(t, err)

	return h
}

func TestRunFlowAllStepsPass(t *testing.T) {
	h := newHarness(t, "")

	var (
		sentPhone string
		verifyIn  entity.VerifyOTPRequest
		loginIn   entity.LoginRequest
	)
	h.api.sendOTP = func(_ context.Context, in entity.SendOTPRequest) (entity.Response, error) {
		sentPhone = in.NoWhatsapp
		return okResponse(`{"success": true, "data": {"code": "482913"}}`)()
	}
	h.api.verify = func(_ context.Context, in entity.VerifyOTPRequest) (entity.Response, error) {
		verifyIn = in
		return okResponse(`{"success": true}`)()
	}
	h.api.login = func(_ context.Context, in entity.LoginRequest) (entity.Response, error) {
		loginIn = in
		return okResponse(`{"success": true}`)()
	}

	report, err := h.uc.RunFlow(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, goerror.ExitOK, goerror.ExitCode(err))

	assert.Equal(t, []entity.Step{entity.StepSendOTP, entity.StepVerifyOTP, entity.StepLogin}, h.api.calls)
	assert.Equal(t, "6281234567890", sentPhone)
	assert.Equal(t, `"482913"`, string(verifyIn.Code))
	assert.Equal(t, entity.VerifyOTPRequest{
		NoWhatsapp: "6281234567890",
		Code:       verifyIn.Code,
		Email:      "test_flow_53281@test.com",
		Nama:       "Test User",
		Password:   "password123",
		Type:       "user",
	}, verifyIn)
	assert.Equal(t, entity.LoginRequest{Email: "test_flow_53281@test.com", Password: "password123"}, loginIn)

	assert.True(t, report.Passed())
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "http://localhost:8000/api", report.BaseURL)
	for _, s := range report.Steps {
		assert.Equal(t, 200, s.StatusCode)
		assert.Equal(t, 25*time.Millisecond, s.Duration)
	}

	assert.Equal(t, []string{
		"config test_flow_53281@test.com",
		"start send-otp-register", "respond send-otp-register 200", "pass send-otp-register",
		"start verify-otp-register", "respond verify-otp-register 200", "pass verify-otp-register",
		"start login", "respond login 200", "pass login",
		"summary true",
	}, h.script.events)
}

func TestRunFlowThreadsNumericCode(t *testing.T) {
	h := newHarness(t, "")

	h.api.sendOTP = func(context.Context, entity.SendOTPRequest) (entity.Response, error) {
		return okResponse(`{"success": true, "data": {"code": 12345}}`)()
	}
	var code string
	h.api.verify = func(_ context.Context, in entity.VerifyOTPRequest) (entity.Response, error) {
		code = string(in.Code)
		return okResponse(`{"success": true}`)()
	}

	_, err := h.uc.RunFlow(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, "12345", code)
}

func TestRunFlowUsesContextCorrelationID(t *testing.T) {
	h := newHarness(t, "")

	var seen string
	h.api.sendOTP = func(ctx context.Context, _ entity.SendOTPRequest) (entity.Response, error) {
		seen = instrument.GetCorrelationID(ctx)
		return okResponse(`{"success": true, "data": {"code": "1"}}`)()
	}

	report, err := h.uc.RunFlow(instrument.SetCorrelationID(context.Background(), "cid-9"), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, "cid-9", seen)
	assert.Equal(t, "cid-9", report.RunID)
}

func TestRunFlowStepFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(api *fakeAPI)
		wantCalls []entity.Step
		wantStep  entity.Step
		wantType  goerror.Type
		wantIs    error
		responded bool
	}{
		{
			name: "send otp success false",
			setup: func(api *fakeAPI) {
				api.sendOTP = func(context.Context, entity.SendOTPRequest) (entity.Response, error) {
					return entity.Response{StatusCode: 429, Body: []byte(`{"success": false, "message": "too many requests"}`)}, nil
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP},
			wantStep:  entity.StepSendOTP,
			wantType:  goerror.TypeStep,
			responded: true,
		},
		{
			name: "send otp without code",
			setup: func(api *fakeAPI) {
				api.sendOTP = func(context.Context, entity.SendOTPRequest) (entity.Response, error) {
					return okResponse(`{"success": true, "data": {}}`)()
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP},
			wantStep:  entity.StepSendOTP,
			wantType:  goerror.TypeStep,
			wantIs:    goerror.ErrMissingField,
			responded: true,
		},
		{
			name: "send otp without success",
			setup: func(api *fakeAPI) {
				api.sendOTP = func(context.Context, entity.SendOTPRequest) (entity.Response, error) {
					return okResponse(`{"data": {"code": "1"}}`)()
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP},
			wantStep:  entity.StepSendOTP,
			wantType:  goerror.TypeStep,
			wantIs:    goerror.ErrMissingField,
			responded: true,
		},
		{
			name: "send otp transport error",
			setup: func(api *fakeAPI) {
				api.sendOTP = func(context.Context, entity.SendOTPRequest) (entity.Response, error) {
					return entity.Response{}, errors.New("connection refused")
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP},
			wantStep:  entity.StepSendOTP,
			wantType:  goerror.TypeTransport,
		},
		{
			name: "verify returns html",
			setup: func(api *fakeAPI) {
				api.verify = func(context.Context, entity.VerifyOTPRequest) (entity.Response, error) {
					return entity.Response{StatusCode: 502, Body: []byte("<html>Bad Gateway</html>")}, nil
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP, entity.StepVerifyOTP},
			wantStep:  entity.StepVerifyOTP,
			wantType:  goerror.TypeParse,
			responded: true,
		},
		{
			name: "verify success false",
			setup: func(api *fakeAPI) {
				api.verify = func(context.Context, entity.VerifyOTPRequest) (entity.Response, error) {
					return entity.Response{StatusCode: 422, Body: []byte(`{"success": false, "message": "invalid otp"}`)}, nil
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP, entity.StepVerifyOTP},
			wantStep:  entity.StepVerifyOTP,
			wantType:  goerror.TypeStep,
			responded: true,
		},
		{
			name: "login cancelled",
			setup: func(api *fakeAPI) {
				api.login = func(context.Context, entity.LoginRequest) (entity.Response, error) {
					return entity.Response{}, context.Canceled
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP, entity.StepVerifyOTP, entity.StepLogin},
			wantStep:  entity.StepLogin,
			wantType:  goerror.TypeTransport,
			wantIs:    context.Canceled,
		},
		{
			name: "login success zero",
			setup: func(api *fakeAPI) {
				api.login = func(context.Context, entity.LoginRequest) (entity.Response, error) {
					return entity.Response{StatusCode: 401, Body: []byte(`{"success": 0}`)}, nil
				}
			},
			wantCalls: []entity.Step{entity.StepSendOTP, entity.StepVerifyOTP, entity.StepLogin},
			wantStep:  entity.StepLogin,
			wantType:  goerror.TypeStep,
			responded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			tt.setup(h.api)

			report, err := h.uc.RunFlow(context.Background(), testIdentity)
			require.Error(t, err)
			assert.Equal(t, goerror.ExitFailure, goerror.ExitCode(err))
			assert.Equal(t, tt.wantCalls, h.api.calls)

			var ge *goerror.Error
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.wantType, ge.Type())
			assert.Equal(t, tt.wantStep.String(), ge.Step())
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}

			require.NotNil(t, report)
			assert.False(t, report.Passed())
			failed, found := report.Failed()
			require.True(t, found)
			assert.Equal(t, tt.wantStep, failed.Step)
			for _, s := range report.Steps[tt.wantStep.Number():] {
				assert.Equal(t, entity.OutcomeSkipped, s.Outcome, s.Step)
			}

			assert.Contains(t, h.script.events, "fail "+tt.wantStep.String())
			responded := slices.ContainsFunc(h.script.events, func(e string) bool {
				return strings.HasPrefix(e, "respond "+tt.wantStep.String()+" ")
			})
			assert.Equal(t, tt.responded, responded)
			assert.Equal(t, "summary false", h.script.events[len(h.script.events)-1])
		})
	}
}

func TestNewIdentity(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		id, err := newHarness(t, "").uc.NewIdentity(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testIdentity, id)
	})

	t.Run("custom template", func(t *testing.T) {
		id, err := newHarness(t, "identity:\n  email_template: QA+%d@Example.org\n").uc.NewIdentity(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "qa+53281@example.org", id.Email)
	})

	t.Run("template without verb", func(t *testing.T) {
		_, err := newHarness(t, "identity:\n  email_template: fixed@test.com\n").uc.NewIdentity(context.Background())
		require.Error(t, err)
		assert.Equal(t, goerror.ExitConfig, goerror.ExitCode(err))
	})

	t.Run("template with extra verb", func(t *testing.T) {
		_, err := newHarness(t, "identity:\n  email_template: \"%s_%d@test.com\"\n").uc.NewIdentity(context.Background())
		require.Error(t, err)
		assert.Equal(t, goerror.ExitConfig, goerror.ExitCode(err))
	})

	t.Run("invalid phone", func(t *testing.T) {
		_, err := newHarness(t, "identity:\n  phone: \"+62 812\"\n").uc.NewIdentity(context.Background())
		require.Error(t, err)

		var ge *goerror.Error
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, goerror.TypeConfig, ge.Type())
		assert.Contains(t, ge.Fields(), "no_whatsapp")
	})

	t.Run("short password", func(t *testing.T) {
		_, err := newHarness(t, "identity:\n  password: short\n").uc.NewIdentity(context.Background())
		require.Error(t, err)

		var ge *goerror.Error
		require.ErrorAs(t, err, &ge)
		assert.Contains(t, ge.Fields(), "password")
	})
}

func TestPublishReport(t *testing.T) {
	h := newHarness(t, "")
	report := entity.NewFlowReport("run-1", "http://localhost:8000/api", testIdentity, time.Now())

	h.uc.PublishReport(context.Background(), report)
	require.NoError(t, h.goroutine.Wait())

	require.Len(t, h.msg.reports, 1)
	assert.Same(t, report, h.msg.reports[0])
	assert.Equal(t, []byte("transcript"), h.artifact.uploads["run-1"])
}

func TestPublishReportSinkErrors(t *testing.T) {
	h := newHarness(t, "")
	h.msg.err = errors.New("broker down")
	h.artifact.err = errors.New("bucket missing")

	h.uc.PublishReport(context.Background(), entity.NewFlowReport("run-1", "", testIdentity, time.Now()))

	err := h.goroutine.Wait()
	require.Error(t, err)
	assert.ErrorContains(t, err, "broker down")
	assert.ErrorContains(t, err, "bucket missing")
}

func TestPublishReportWithoutSinks(t *testing.T) {
	h := newHarness(t, "")
	h.uc.repoMessaging = nil
	h.uc.repoArtifact = nil

	h.uc.PublishReport(context.Background(), entity.NewFlowReport("run-1", "", testIdentity, time.Now()))
	assert.NoError(t, h.goroutine.Wait())
}
