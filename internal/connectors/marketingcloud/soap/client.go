package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sfmc-extract/internal/connectors/marketingcloud"
	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

// ErrMissingResponse indicates a successful HTTP response without a RetrieveResponseMsg.
var ErrMissingResponse = errors.New("soap: response has no RetrieveResponseMsg")

// Client performs Retrieve operations against the partner API endpoint.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	rateLimiter *marketingcloud.RateLimiter
}

// NewClient creates a SOAP client for the endpoint.
// A nil rate limiter disables pacing.
func NewClient(endpoint string, timeout time.Duration, rateLimiter *marketingcloud.RateLimiter) *Client {
	if timeout <= 0 {
		timeout = marketingcloud.DefaultConfig().CallTimeout
	}
	return &Client{
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rateLimiter,
	}
}

// Endpoint returns the SOAP endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Retrieve sends one Retrieve request signed with token and classifies the outcome.
func (c *Client) Retrieve(ctx context.Context, token string, req *RetrieveRequest) Result {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return Fault(err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(newRequestEnvelope(token, req)); err != nil {
		return Fault(fmt.Errorf("encode envelope: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return Fault(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "Retrieve")

	logger.Debug("soap: Retrieve %s (continuation=%v)", req.ObjectType, req.IsContinuation())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Fault(fmt.Errorf("retrieve request: %w", err))
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return Fault(fmt.Errorf("read response: %w", err))
	}

	logger.Debug("soap: response status %d, body length %d", resp.StatusCode, len(body))

	if resp.StatusCode == http.StatusTooManyRequests {
		if c.rateLimiter != nil {
			c.rateLimiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		}
		return Fault(fmt.Errorf("retrieve request: status %d: %w", resp.StatusCode, marketingcloud.ErrRateLimited))
	}

	return decodeResponse(resp.StatusCode, body)
}

// decodeResponse classifies a SOAP HTTP response body.
func decodeResponse(statusCode int, body []byte) Result {
	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		if !marketingcloud.IsSuccess(statusCode) {
			return Fault(fmt.Errorf("retrieve request failed: status %d: %s", statusCode, snippet(body)))
		}
		return Fault(fmt.Errorf("decode response: %w", err))
	}

	if f := env.Body.Fault; f != nil {
		fault := &FaultError{Code: strings.TrimSpace(f.Code), Message: strings.TrimSpace(f.String)}
		if IsTokenExpiredFault(fault.Message) {
			return Expired(fault)
		}
		return Fault(fault)
	}

	if !marketingcloud.IsSuccess(statusCode) {
		return Fault(fmt.Errorf("retrieve request failed: status %d: %s", statusCode, snippet(body)))
	}

	msg := env.Body.Retrieve
	if msg == nil {
		return Fault(ErrMissingResponse)
	}
	if strings.HasPrefix(msg.OverallStatus, "Error") {
		return Fault(fmt.Errorf("retrieve status %q", msg.OverallStatus))
	}

	out := &RetrieveResponse{
		OverallStatus: strings.TrimSpace(msg.OverallStatus),
		RequestID:     strings.TrimSpace(msg.RequestID),
		Objects:       make([]domain.RawObject, 0, len(msg.Results)),
	}
	for _, node := range msg.Results {
		out.Objects = append(out.Objects, extractObject(node))
	}
	return OK(out)
}

func snippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return string(body)
}

func retryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
