// Package file loads extraction settings from a TOML file and credentials
// from the environment.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sfmc-extract/internal/connectors/marketingcloud"
	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

// Environment variables holding credentials.
const (
	EnvSubdomain    = "SFMC_SUBDOMAIN"
	EnvClientID     = "SFMC_CLIENT_ID"
	EnvClientSecret = "SFMC_CLIENT_SECRET"
)

// ObjectConfig is one [[objects]] table.
type ObjectConfig struct {
	Type           string   `toml:"type"`
	Properties     []string `toml:"properties"`
	FilterProperty string   `toml:"filter_property,omitempty"`
	FilterOperator string   `toml:"filter_operator,omitempty"`
	DaysBack       *int     `toml:"days_back,omitempty"`
	FullLoad       bool     `toml:"full_load,omitempty"`
	PrimaryKey     string   `toml:"primary_key,omitempty"`
}

// SinkConfig selects and configures the record sink.
type SinkConfig struct {
	Kind        string   `toml:"kind,omitempty"`
	Dir         string   `toml:"dir,omitempty"`
	Brokers     []string `toml:"brokers,omitempty"`
	TopicPrefix string   `toml:"topic_prefix,omitempty"`
}

// Settings is the on-disk configuration.
type Settings struct {
	Subdomain         string         `toml:"subdomain,omitempty"`
	DaysBack          *int           `toml:"days_back,omitempty"`
	Parallelism       int            `toml:"parallelism,omitempty"`
	BatchSize         int            `toml:"batch_size,omitempty"`
	CallTimeout       string         `toml:"call_timeout,omitempty"`
	RequestsPerSecond *float64       `toml:"requests_per_second,omitempty"`
	AuthBaseURL       string         `toml:"auth_base_url,omitempty"`
	SOAPBaseURL       string         `toml:"soap_base_url,omitempty"`
	History           string         `toml:"history,omitempty"`
	Sink              SinkConfig     `toml:"sink,omitempty"`
	Objects           []ObjectConfig `toml:"objects,omitempty"`
}

// DefaultPath returns ~/.sfmc-extract/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".sfmc-extract", "config.toml"), nil
}

// Load reads settings from path. An empty path reads DefaultPath and
// returns empty settings if that file does not exist. An explicit path
// must exist.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML settings. Unknown keys are rejected.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	if s.Parallelism < 0 {
		return nil, fmt.Errorf("%w: parallelism must not be negative", domain.ErrInvalidConfig)
	}
	if s.BatchSize < 0 {
		return nil, fmt.Errorf("%w: batch_size must not be negative", domain.ErrInvalidConfig)
	}
	return &s, nil
}

// Save writes settings to path as TOML.
func Save(path string, s *Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LookbackDays returns the global lookback, defaulting to marketingcloud.DefaultDaysBack.
func (s *Settings) LookbackDays() int {
	if s.DaysBack == nil {
		return marketingcloud.DefaultDaysBack
	}
	return *s.DaysBack
}

// ObjectSpecs builds validated specs. Without [[objects]] the default
// catalogue is used.
func (s *Settings) ObjectSpecs() ([]domain.ObjectTypeSpec, error) {
	daysBack := s.LookbackDays()
	if daysBack < 0 {
		return nil, fmt.Errorf("%w: days_back must not be negative", domain.ErrInvalidConfig)
	}
	if len(s.Objects) == 0 {
		return marketingcloud.DefaultObjectTypes(daysBack), nil
	}

	specs := make([]domain.ObjectTypeSpec, 0, len(s.Objects))
	for _, o := range s.Objects {
		spec := domain.ObjectTypeSpec{
			ObjectType:     o.Type,
			Properties:     append([]string(nil), o.Properties...),
			FilterProperty: o.FilterProperty,
			FilterOperator: o.FilterOperator,
			DaysBack:       daysBack,
			FullLoad:       o.FullLoad,
			PrimaryKey:     o.PrimaryKey,
		}
		if o.DaysBack != nil {
			spec.DaysBack = *o.DaysBack
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ConnectorConfig builds the Marketing Cloud connector configuration.
func (s *Settings) ConnectorConfig() (*marketingcloud.Config, error) {
	values := map[string]string{
		"auth_base_url": s.AuthBaseURL,
		"soap_base_url": s.SOAPBaseURL,
		"call_timeout":  s.CallTimeout,
	}
	if s.RequestsPerSecond != nil {
		values["requests_per_second"] = strconv.FormatFloat(*s.RequestsPerSecond, 'f', -1, 64)
	}
	return marketingcloud.ParseConfig(values)
}

// LoadCredentials reads credentials from the environment, loading envFile
// first if it exists. An empty envFile tries ".env" in the working
// directory. The subdomain falls back to the settings file.
func (s *Settings) LoadCredentials(envFile string) (marketingcloud.Credentials, error) {
	if envFile == "" {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return marketingcloud.Credentials{}, fmt.Errorf("%w: load %s: %v", domain.ErrInvalidConfig, envFile, err)
	}

	creds := marketingcloud.Credentials{
		Subdomain:    os.Getenv(EnvSubdomain),
		ClientID:     os.Getenv(EnvClientID),
		ClientSecret: os.Getenv(EnvClientSecret),
	}
	if creds.Subdomain == "" {
		creds.Subdomain = s.Subdomain
	}
	if err := creds.Validate(); err != nil {
		return marketingcloud.Credentials{}, err
	}
	return creds, nil
}
