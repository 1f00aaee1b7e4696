package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// Options controls where NewViper looks for configuration.
type Options struct {
	// File is the config file path. A missing file is not an error.
	File string
	// EnvPrefix enables environment overrides such as <PREFIX>_API_BASE_URL.
	EnvPrefix string
	// Defaults are registered before any other source is read.
	Defaults map[string]any
	// Flags holds parsed command-line flags.
	Flags *pflag.FlagSet
	// FlagKeys maps a flag name to the config key it overrides.
	FlagKeys map[string]string
}

// NewViper loads configuration from defaults, an optional file, the environment
// and command-line flags, in increasing order of precedence.
//
// The config file type is inferred by Viper from the filename extension.
func NewViper(opts Options) (*Viper, error) {
	v := viper.New()

	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if opts.File != "" {
		filename := path.Base(opts.File)
		configName := filename[:len(filename)-len(path.Ext(filename))]

		v.AddConfigPath(path.Dir(opts.File))
		v.SetConfigName(configName)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if opts.Flags != nil {
		for name, key := range opts.FlagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, err
			}
		}
	}

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte, defaults map[string]any) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

// GetUint returns the value for key as uint.
func (vc *Viper) GetUint(key string) uint {
	return vc.v.GetUint(key)
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetMillisecond returns the value for key as milliseconds.
func (vc *Viper) GetMillisecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Millisecond
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

// GetBinary returns the value for key decoded from base64.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

// GetArray returns the value for key split by commas, dropping empty elements.
func (vc *Viper) GetArray(key string) []string {
	if list, ok := vc.v.Get(key).([]any); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	raw := vc.v.GetString(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// ConfigFile returns the config file in use, if any.
func (vc *Viper) ConfigFile() string {
	return vc.v.ConfigFileUsed()
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
