package marketingcloud

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
)

// Credentials identify an API integration within a tenant.
type Credentials struct {
	Subdomain    string
	ClientID     string
	ClientSecret string
}

// Validate checks that all credential fields are present.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Subdomain) == "" {
		missing = append(missing, "subdomain")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Config holds Marketing Cloud connector configuration.
type Config struct {
	// AuthBaseURL overrides https://{subdomain}.auth.marketingcloudapis.com (optional).
	AuthBaseURL string
	// SOAPBaseURL overrides https://{subdomain}.soap.marketingcloudapis.com (optional).
	SOAPBaseURL string
	// CallTimeout bounds each HTTP round trip.
	CallTimeout time.Duration
	// RequestsPerSecond paces SOAP round trips (0 disables limiting).
	RequestsPerSecond float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CallTimeout:       120 * time.Second,
		RequestsPerSecond: DefaultRateLimit.RequestsPerSecond,
	}
}

// ParseConfig extracts connector options from a key/value map.
func ParseConfig(values map[string]string) (*Config, error) {
	cfg := DefaultConfig()

	if val := values["auth_base_url"]; val != "" {
		cfg.AuthBaseURL = strings.TrimRight(strings.TrimSpace(val), "/")
	}

	if val := values["soap_base_url"]; val != "" {
		cfg.SOAPBaseURL = strings.TrimRight(strings.TrimSpace(val), "/")
	}

	if val := values["call_timeout"]; val != "" {
		d, err := time.ParseDuration(val)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: call_timeout %q", domain.ErrInvalidConfig, val)
		}
		cfg.CallTimeout = d
	}

	if val := values["requests_per_second"]; val != "" {
		n, err := strconv.ParseFloat(val, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: requests_per_second %q", domain.ErrInvalidConfig, val)
		}
		cfg.RequestsPerSecond = n
	}

	return cfg, nil
}

// TokenURL returns the OAuth2 token endpoint for the subdomain.
func (c *Config) TokenURL(subdomain string) string {
	base := c.AuthBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.auth.marketingcloudapis.com", subdomain)
	}
	return base + "/v2/token"
}

// SOAPEndpoint returns the SOAP service endpoint for the subdomain.
func (c *Config) SOAPEndpoint(subdomain string) string {
	return c.soapBase(subdomain) + "/Service.asmx"
}

// WSDLURL returns the WSDL location for the subdomain.
func (c *Config) WSDLURL(subdomain string) string {
	return c.soapBase(subdomain) + "/etframework.wsdl"
}

func (c *Config) soapBase(subdomain string) string {
	if c.SOAPBaseURL != "" {
		return c.SOAPBaseURL
	}
	return fmt.Sprintf("https://%s.soap.marketingcloudapis.com", subdomain)
}

// RateLimiter builds a limiter from the configured request rate.
func (c *Config) RateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(RateLimitConfig{
		RequestsPerSecond: c.RequestsPerSecond,
		BurstSize:         DefaultRateLimit.BurstSize,
	})
}
