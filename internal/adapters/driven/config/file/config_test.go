package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sfmc-extract/internal/connectors/marketingcloud"
	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

const sampleConfig = `
subdomain = "mc123"
days_back = 2
parallelism = 3
batch_size = 250
call_timeout = "45s"
requests_per_second = 2.5

[sink]
kind = "kafka"
brokers = ["localhost:9092"]
topic_prefix = "sfmc."

[[objects]]
type = "SentEvent"
properties = ["SendID", "SubscriberKey", "EventDate"]
filter_property = "EventDate"

[[objects]]
type = "Subscriber"
properties = ["ID", "SubscriberKey", "Status"]
full_load = true
primary_key = "SubscriberKey"

[[objects]]
type = "Send"
properties = ["ID", "CreatedDate"]
filter_property = "CreatedDate"
filter_operator = "greaterThanOrEqual"
days_back = 10
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "mc123", s.Subdomain)
	assert.Equal(t, 2, s.LookbackDays())
	assert.Equal(t, 3, s.Parallelism)
	assert.Equal(t, 250, s.BatchSize)
	assert.Equal(t, "kafka", s.Sink.Kind)
	assert.Equal(t, []string{"localhost:9092"}, s.Sink.Brokers)

	specs, err := s.ObjectSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "SentEvent", specs[0].ObjectType)
	assert.Equal(t, 2, specs[0].DaysBack)
	assert.Equal(t, domain.DefaultFilterOperator, specs[0].Operator())

	assert.True(t, specs[1].FullLoad)
	assert.Equal(t, "subscriberkey", specs[1].KeyField())
	assert.Equal(t, domain.DispositionReplace, specs[1].Disposition())

	assert.Equal(t, 10, specs[2].DaysBack)
	assert.Equal(t, "greaterThanOrEqual", specs[2].Operator())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", `colour = "blue"`},
		{"malformed", `subdomain = `},
		{"negative parallelism", `parallelism = -1`},
		{"negative batch size", `batch_size = -5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestObjectSpecs_DefaultCatalogue(t *testing.T) {
	s := &Settings{}
	specs, err := s.ObjectSpecs()
	require.NoError(t, err)
	assert.Equal(t, marketingcloud.DefaultObjectTypes(marketingcloud.DefaultDaysBack), specs)
}

func TestObjectSpecs_Invalid(t *testing.T) {
	s := &Settings{Objects: []ObjectConfig{{Type: "SentEvent"}}}
	_, err := s.ObjectSpecs()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	negative := -1
	s = &Settings{DaysBack: &negative}
	_, err = s.ObjectSpecs()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestConnectorConfig(t *testing.T) {
	s, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	cfg, err := s.ConnectorConfig()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.CallTimeout)
	assert.InDelta(t, 2.5, cfg.RequestsPerSecond, 0.0001)

	cfg, err = (&Settings{}).ConnectorConfig()
	require.NoError(t, err)
	assert.Equal(t, marketingcloud.DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		days := 7
		require.NoError(t, Save(path, &Settings{Subdomain: "mc9", DaysBack: &days}))

		s, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "mc9", s.Subdomain)
		assert.Equal(t, 7, s.LookbackDays())
	})

	t.Run("default path missing", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		s, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, &Settings{}, s)
	})
}

func TestLoadCredentials(t *testing.T) {
	t.Run("from environment with subdomain fallback", func(t *testing.T) {
		t.Setenv(EnvSubdomain, "")
		t.Setenv(EnvClientID, "client")
		t.Setenv(EnvClientSecret, "secret")
		t.Chdir(t.TempDir())

		creds, err := (&Settings{Subdomain: "mc123"}).LoadCredentials("")
		require.NoError(t, err)
		assert.Equal(t, marketingcloud.Credentials{Subdomain: "mc123", ClientID: "client", ClientSecret: "secret"}, creds)
	})

	t.Run("explicit env file missing", func(t *testing.T) {
		_, err := (&Settings{}).LoadCredentials(filepath.Join(t.TempDir(), "none.env"))
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("env file", func(t *testing.T) {
		unsetEnv(t, EnvSubdomain, EnvClientID, EnvClientSecret)

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, writeFile(path, "SFMC_CLIENT_ID=abc\nSFMC_CLIENT_SECRET=xyz\n"))

		creds, err := (&Settings{Subdomain: "mc123"}).LoadCredentials(path)
		require.NoError(t, err)
		assert.Equal(t, marketingcloud.Credentials{Subdomain: "mc123", ClientID: "abc", ClientSecret: "xyz"}, creds)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv(EnvSubdomain, "mc1")
		t.Setenv(EnvClientID, "abc")
		t.Setenv(EnvClientSecret, "")
		t.Chdir(t.TempDir())

		_, err := (&Settings{}).LoadCredentials("")
		require.ErrorIs(t, err, domain.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "client_secret")
	})
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

// unsetEnv removes variables for the test so that godotenv can set them.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
