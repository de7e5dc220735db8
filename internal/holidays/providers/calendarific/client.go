// Package calendarific adapts the Calendarific v2 holidays API to holidays.Source.
package calendarific

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"idlookup/internal/holidays"
	"idlookup/internal/holidays/providers"
	"idlookup/internal/platform/logger"
)

const (
	// ProviderID names this provider in errors, logs and metrics.
	ProviderID = "calendarific"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches yearly holiday calendars. It never fails past its boundary:
// every error is logged and folded into a degraded holidays.FetchResult.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// WithTimeout bounds a single fetch; expiry degrades to an empty result.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for baseURL (e.g. https://calendarific.com/api/v2).
// An empty apiKey is allowed; every fetch then degrades with
// ErrorMissingCredential.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: defaultTimeout,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// FetchYearHolidays returns every holiday Calendarific lists for country in year.
func (c *Client) FetchYearHolidays(ctx context.Context, country string, year int) holidays.FetchResult {
	raw, err := c.fetch(ctx, country, year)
	if err != nil {
		c.logger.WarnContext(ctx, "holiday fetch degraded to empty result",
			"provider", ProviderID,
			"category", string(providers.GetCategory(err)),
			"country", country,
			"year", year,
			"error", err,
		)
		return holidays.Degraded(err)
	}
	return holidays.OK(raw)
}

func (c *Client) fetch(ctx context.Context, country string, year int) ([]holidays.RawHoliday, error) {
	if c.apiKey == "" {
		return nil, providers.NewProviderError(providers.ErrorMissingCredential, ProviderID, "api key not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("country", country)
	query.Set("year", strconv.Itoa(year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/holidays?"+query.Encode(), nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, "failed to create request", redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, providers.NewProviderError(providers.ErrorTimeout, ProviderID, "request timeout", redact(err))
		}
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, "failed to execute request", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, providers.NewProviderError(providers.ErrorTimeout, ProviderID, "response read timeout", redact(err))
		}
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "failed to read response", redact(err))
	}

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}
	return parseHolidaysResponse(body)
}

func statusError(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return providers.NewProviderError(providers.ErrorAuthentication, ProviderID, "credential rejected", nil)
	case status == http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ErrorRateLimited, ProviderID, "rate limited", nil)
	case status >= http.StatusInternalServerError:
		return providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, fmt.Sprintf("upstream status %d", status), nil)
	default:
		return providers.NewProviderError(providers.ErrorContractViolation, ProviderID, fmt.Sprintf("unexpected status %d", status), nil)
	}
}

// redact drops the request URL from transport errors; it carries the API key.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

type envelope struct {
	Meta struct {
		Code      int    `json:"code"`
		ErrorType string `json:"error_type"`
	} `json:"meta"`
	Response json.RawMessage `json:"response"`
}

type responseBody struct {
	Holidays *[]holidayDTO `json:"holidays"`
}

type holidayDTO struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        json.RawMessage `json:"type"`
	PrimaryType string          `json:"primary_type"`
	Date        struct {
		ISO string `json:"iso"`
	} `json:"date"`
}

// parseHolidaysResponse validates the {response: {holidays: [...]}} contract.
// Any deviation rejects the whole response.
func parseHolidaysResponse(body []byte) ([]holidays.RawHoliday, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "response is not JSON", err)
	}
	if env.Meta.Code != 0 && env.Meta.Code != http.StatusOK {
		return nil, metaError(env.Meta.Code, env.Meta.ErrorType)
	}

	trimmed := bytes.TrimSpace(env.Response)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, providers.NewProviderError(providers.ErrorContractViolation, ProviderID, "response object missing", nil)
	}
	var rb responseBody
	if err := json.Unmarshal(trimmed, &rb); err != nil {
		return nil, providers.NewProviderError(providers.ErrorContractViolation, ProviderID, "response.holidays malformed", err)
	}
	if rb.Holidays == nil {
		return nil, providers.NewProviderError(providers.ErrorContractViolation, ProviderID, "response.holidays missing", nil)
	}

	out := make([]holidays.RawHoliday, 0, len(*rb.Holidays))
	for i, h := range *rb.Holidays {
		if h.Name == "" || h.Date.ISO == "" {
			return nil, providers.NewProviderError(providers.ErrorContractViolation, ProviderID,
				fmt.Sprintf("holiday %d missing name or date.iso", i), nil)
		}
		types, primary, err := decodeType(h.Type)
		if err != nil {
			return nil, providers.NewProviderError(providers.ErrorContractViolation, ProviderID,
				fmt.Sprintf("holiday %d has malformed type", i), err)
		}
		if h.PrimaryType != "" {
			primary = h.PrimaryType
		}
		out = append(out, holidays.RawHoliday{
			Name:        h.Name,
			Description: h.Description,
			Types:       types,
			PrimaryType: primary,
			Date:        h.Date.ISO,
		})
	}
	return out, nil
}

// decodeType accepts the documented string array, a bare string, or null.
// A bare string is treated as the primary type.
func decodeType(raw json.RawMessage) ([]string, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return list, "", nil
	}
	var single string
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, "", err
	}
	return nil, single, nil
}

func metaError(code int, errorType string) error {
	msg := fmt.Sprintf("meta code %d", code)
	if errorType != "" {
		msg += " (" + errorType + ")"
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return providers.NewProviderError(providers.ErrorAuthentication, ProviderID, msg, nil)
	case code == http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ErrorRateLimited, ProviderID, msg, nil)
	case code >= http.StatusInternalServerError:
		return providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, msg, nil)
	default:
		return providers.NewProviderError(providers.ErrorContractViolation, ProviderID, msg, nil)
	}
}

var _ holidays.Source = (*Client)(nil)
