package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/shandysiswandi/authflow/internal/pkg/clock"
	"github.com/shandysiswandi/authflow/internal/pkg/config"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
	"github.com/shandysiswandi/authflow/internal/pkg/goroutine"
	"github.com/shandysiswandi/authflow/internal/pkg/instrument"
	"github.com/shandysiswandi/authflow/internal/pkg/messaging"
	"github.com/shandysiswandi/authflow/internal/pkg/storage"
	"github.com/shandysiswandi/authflow/internal/pkg/uid"
	"github.com/shandysiswandi/authflow/internal/pkg/validator"
	"github.com/spf13/pflag"
	"google.golang.org/api/option"
)

const defaultConfigPath = "./config/config.yaml"

var errSuffixRange = errors.New("identity suffix range must span at least one value")

func defaultConfig() map[string]any {
	return map[string]any{
		"app.name":    "authflow",
		"app.version": "dev",
		"app.env":     "local",

		"api.base_url":           "http://localhost:8000/api",
		"api.timeout_seconds":    10,
		"api.user_agent":         "authflow/1.0",
		"api.retry.max_attempts": 0,
		"api.retry.backoff_ms":   200,

		"identity.email_template": "test_flow_%d@test.com",
		"identity.suffix_min":     10000,
		"identity.suffix_max":     99999,
		"identity.phone":          "6281234567890",
		"identity.password":       "password123",
		"identity.name":           "Test User",
		"identity.type":           "user",

		"output.indent": 2,

		"instrument.enabled":                 false,
		"instrument.otlp_endpoint":           "localhost:4317",
		"instrument.otlp_secure":             false,
		"instrument.trace_sample_ratio":      1.0,
		"instrument.metric_interval_seconds": 15,
		"instrument.log_level":               "info",
		"instrument.log_mask_fields":         "password,code,token,access_token,refresh_token",

		"report.max_goroutine": 2,

		"report.messaging.enabled":                   false,
		"report.messaging.driver":                    messaging.DriverNATS,
		"report.messaging.destination":               "authflow.run.completed",
		"report.messaging.nats.url":                  nats.DefaultURL,
		"report.messaging.nats.timeout_seconds":      5,
		"report.messaging.kafka.brokers":             "localhost:9092",
		"report.messaging.nsq.producer_addr":         "localhost:4150",
		"report.messaging.nsq.dial_timeout_seconds":  5,
		"report.messaging.nsq.write_timeout_seconds": 5,
		"report.messaging.pubsub.project_id":         "",
		"report.messaging.pubsub.endpoint":           "",
		"report.messaging.pubsub.without_auth":       false,

		"report.storage.enabled":                false,
		"report.storage.driver":                 storage.DriverMinIO,
		"report.storage.bucket":                 "authflow",
		"report.storage.prefix":                 "runs",
		"report.storage.presign_expiry_seconds": 86400,
		"report.storage.s3.region":              "us-east-1",
		"report.storage.s3.endpoint":            "",
		"report.storage.s3.access_key":          "",
		"report.storage.s3.secret_key":          "",
		"report.storage.s3.use_path_style":      false,
		"report.storage.minio.endpoint":         "localhost:9000",
		"report.storage.minio.access_key":       "",
		"report.storage.minio.secret_key":       "",
		"report.storage.minio.region":           "",
		"report.storage.minio.use_ssl":          false,
		"report.storage.gcs.credentials_json":   "",
		"report.storage.gcs.endpoint":           "",
		"report.storage.gcs.without_auth":       false,
		"report.storage.gcs.google_access_id":   "",
		"report.storage.gcs.private_key":        "",
	}
}

func (a *App) initConfig() error {
	flags := pflag.NewFlagSet("authflow", pflag.ContinueOnError)
	flags.SetOutput(a.opts.Stderr)
	configPath := flags.String("config", "", "path to a YAML config file (env CONFIG_PATH)")
	flags.String("base-url", "http://localhost:8000/api", "base URL of the auth API")
	flags.Int("timeout", 10, "per request timeout in seconds")
	flags.Uint("retries", 0, "retries for transport failures, step failures are never retried")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	if err := flags.Parse(a.opts.Args); err != nil {
		return err
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.NewViper(config.Options{
		File:      path,
		EnvPrefix: "AUTHFLOW",
		Defaults:  defaultConfig(),
		Flags:     flags,
		FlagKeys: map[string]string{
			"base-url":  "api.base_url",
			"timeout":   "api.timeout_seconds",
			"retries":   "api.retry.max_attempts",
			"log-level": "instrument.log_level",
		},
	})
	if err != nil {
		return goerror.NewConfig(err, "failed to load configuration")
	}

	a.config = cfg
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})

	return nil
}

func (a *App) initInstrument() error {
	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("app.name"),
		ServiceVersion:   a.config.GetString("app.version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		LogOutput:        a.opts.Stderr,
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		return err
	}

	a.ins = ins
	a.addCloser("Instrument", func(ctx context.Context) error {
		return a.ins.Shutdown(ctx)
	})

	return nil
}

func (a *App) initLibraries() error {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("report.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		return err
	}
	a.validator = v

	suffix, err := uid.NewRandomRange(
		int64(a.config.GetInt("identity.suffix_min")),
		int64(a.config.GetInt("identity.suffix_max")),
	)
	if err != nil {
		return goerror.NewConfig(fmt.Errorf("%w: %w", errSuffixRange, err), "invalid identity suffix range")
	}
	a.suffix = suffix

	a.ctx = instrument.SetCorrelationID(a.ctx, a.uuid.Generate())

	return nil
}

func (a *App) initMessaging() error {
	if !a.config.GetBool("report.messaging.enabled") {
		return nil
	}

	driver := a.config.GetString("report.messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("report.messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("report.messaging.nsq.dial_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("report.messaging.nsq.write_timeout_seconds")
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("report.messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("report.messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("app.name")),
				nats.Timeout(a.config.GetSecond("report.messaging.nats.timeout_seconds")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("report.messaging.pubsub.project_id"),
			ClientOptions: a.pubsubOptions(),
		},
	})
	if err != nil {
		slog.ErrorContext(a.ctx, "failed to init messaging", "error", err, "driver", driver)
		return err
	}

	a.messaging = client
	a.addCloser("Messaging", func(context.Context) error {
		return a.messaging.Close()
	})

	return nil
}

func (a *App) pubsubOptions() []option.ClientOption {
	var opts []option.ClientOption
	if endpoint := a.config.GetString("report.messaging.pubsub.endpoint"); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if a.config.GetBool("report.messaging.pubsub.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts
}

func (a *App) initStorage() error {
	if !a.config.GetBool("report.storage.enabled") {
		return nil
	}

	driver := a.config.GetString("report.storage.driver")
	client, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       a.config.GetString("report.storage.s3.region"),
			Endpoint:     a.config.GetString("report.storage.s3.endpoint"),
			AccessKey:    a.config.GetString("report.storage.s3.access_key"),
			SecretKey:    a.config.GetString("report.storage.s3.secret_key"),
			UsePathStyle: a.config.GetBool("report.storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Endpoint:  a.config.GetString("report.storage.minio.endpoint"),
			AccessKey: a.config.GetString("report.storage.minio.access_key"),
			SecretKey: a.config.GetString("report.storage.minio.secret_key"),
			Region:    a.config.GetString("report.storage.minio.region"),
			UseSSL:    a.config.GetBool("report.storage.minio.use_ssl"),
		},
		GCS: storage.GCSOptions{
			CredentialsJSON: a.config.GetBinary("report.storage.gcs.credentials_json"),
			Endpoint:        a.config.GetString("report.storage.gcs.endpoint"),
			WithoutAuth:     a.config.GetBool("report.storage.gcs.without_auth"),
			GoogleAccessID:  a.config.GetString("report.storage.gcs.google_access_id"),
			PrivateKey:      a.config.GetBinary("report.storage.gcs.private_key"),
		},
	})
	if err != nil {
		slog.ErrorContext(a.ctx, "failed to init storage", "error", err, "driver", driver)
		return err
	}

	a.storage = client
	a.addCloser("Storage", func(context.Context) error {
		return a.storage.Close()
	})

	return nil
}
