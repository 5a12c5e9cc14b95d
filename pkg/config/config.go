// Package config loads cbv settings from .cbv.yaml, CBV_* environment
// variables and defaults, in that order of precedence after flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/history"
)

// Config is the resolved configuration.
type Config struct {
	BaseURL           string        `mapstructure:"base_url" validate:"required,url"`
	CourseID          string        `mapstructure:"course_id"`
	Username          string        `mapstructure:"username"`
	Auth              AuthConfig    `mapstructure:"auth"`
	ExcludeBlockTypes []string      `mapstructure:"exclude_block_types"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	History           HistoryConfig `mapstructure:"history"`
	Log               LoggingConfig `mapstructure:"log"`
}

// AuthConfig holds the credentials forwarded to the LMS.
type AuthConfig struct {
	Token         string `mapstructure:"token"`
	SessionCookie string `mapstructure:"session_cookie"`
}

// HistoryConfig locates the selection history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Driver  string `mapstructure:"driver" validate:"oneof=sqlite sqlite3"`
	Path    string `mapstructure:"path"`
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:18000")
	v.SetDefault("course_id", "")
	v.SetDefault("username", "")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.session_cookie", "")
	v.SetDefault("exclude_block_types", []string{})
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.driver", history.DriverPureGo)
	v.SetDefault("history.path", history.DefaultDBPath())
	v.SetDefault("log.level", "normal")
	v.SetDefault("log.file", "")
	v.SetDefault("log.mode", "append")
}

// New returns a viper instance wired for cbv: defaults, env prefix and
// config search path. The config file is read by Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(".cbv") // .yaml is implicit
	v.SetEnvPrefix("CBV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("CBV_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	return v
}

// Load reads the config file, if any, and decodes everything into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ExcludeBlockTypes = splitList(cfg.ExcludeBlockTypes)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report config keys instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks values that would only fail later and less clearly.
// Every offending key is reported.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var all error
	for _, fe := range fieldErrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		all = multierr.Append(all, fmt.Errorf("invalid %s %q: %s", key, fmt.Sprint(fe.Value()), describeRule(fe)))
	}
	return all
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be set"
	case "url":
		return "must be an absolute URL"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "fails " + fe.Tag()
}

// splitList accepts both YAML lists and a comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
