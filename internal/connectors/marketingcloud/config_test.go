package marketingcloud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

func TestCredentials_Validate(t *testing.T) {
	assert.NoError(t, Credentials{Subdomain: "mc1", ClientID: "id", ClientSecret: "secret"}.Validate())

	err := Credentials{Subdomain: "mc1", ClientID: " "}.Validate()
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "client_id, client_secret")
	assert.NotContains(t, err.Error(), "subdomain")
}

func TestParseConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
		assert.Equal(t, 120*time.Second, cfg.CallTimeout)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := ParseConfig(map[string]string{
			"auth_base_url":       "http://localhost:8080/",
			"soap_base_url":       " http://localhost:9090 ",
			"call_timeout":        "30s",
			"requests_per_second": "0",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.AuthBaseURL)
		assert.Equal(t, "http://localhost:9090", cfg.SOAPBaseURL)
		assert.Equal(t, 30*time.Second, cfg.CallTimeout)
		assert.Zero(t, cfg.RequestsPerSecond)
	})

	invalid := []map[string]string{
		{"call_timeout": "soon"},
		{"call_timeout": "-1s"},
		{"requests_per_second": "fast"},
		{"requests_per_second": "-2"},
	}
	for _, values := range invalid {
		_, err := ParseConfig(values)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig, "%v", values)
	}
}

func TestConfig_Endpoints(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://mc123.auth.marketingcloudapis.com/v2/token", cfg.TokenURL("mc123"))
	assert.Equal(t, "https://mc123.soap.marketingcloudapis.com/Service.asmx", cfg.SOAPEndpoint("mc123"))
	assert.Equal(t, "https://mc123.soap.marketingcloudapis.com/etframework.wsdl", cfg.WSDLURL("mc123"))

	cfg.AuthBaseURL = "http://auth.local"
	cfg.SOAPBaseURL = "http://soap.local"
	assert.Equal(t, "http://auth.local/v2/token", cfg.TokenURL("mc123"))
	assert.Equal(t, "http://soap.local/Service.asmx", cfg.SOAPEndpoint("mc123"))
}
