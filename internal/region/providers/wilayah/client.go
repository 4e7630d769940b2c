// Package wilayah is the HTTP adapter for the static Indonesian region
// catalog (provinces.json, regencies/{code}.json, ...).
package wilayah

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

const maxBodyBytes = 4 << 20

// Client fetches children lists from the catalog. It never retries.
type Client struct {
	id      string
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to share a transport.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(cl *Client) {
		cl.tracer = t
	}
}

func NewClient(id, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("alumni/region/wilayah"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) FetchChildren(ctx context.Context, level models.Level, parentCode string) ([]models.Option, error) {
	if err := providers.ValidateRequest(level, parentCode); err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id,
			fmt.Sprintf("%s lookup with parent %q", level, parentCode), err)
	}

	ctx, span := c.tracer.Start(ctx, "wilayah.FetchChildren", trace.WithAttributes(
		attribute.String("region.level", level.String()),
		attribute.String("region.parent", parentCode),
	))
	defer span.End()

	options, err := c.get(ctx, c.baseURL+childrenPath(level, parentCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(providers.GetCategory(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("region.options", len(options)))
	return options, nil
}

func (c *Client) get(ctx context.Context, target string) ([]models.Option, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, c.id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, c.id, err)
	}
	return parseChildrenResponse(c.id, resp.StatusCode, body)
}

func childrenPath(level models.Level, parentCode string) string {
	switch level {
	case models.LevelProvince:
		return "/provinces.json"
	case models.LevelRegency:
		return "/regencies/" + url.PathEscape(parentCode) + ".json"
	case models.LevelDistrict:
		return "/districts/" + url.PathEscape(parentCode) + ".json"
	default:
		return "/villages/" + url.PathEscape(parentCode) + ".json"
	}
}

func transportError(ctx context.Context, providerID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return providers.FromContext(providerID, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return providers.NewProviderError(providers.ErrorTimeout, providerID, "request timed out", err)
	}
	return providers.NewProviderError(providers.ErrorNetwork, providerID, "request failed", err)
}

type regionRecord struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type envelope struct {
	Data []regionRecord `json:"data"`
}

// parseChildrenResponse accepts both a bare array and a {"data": [...]}
// envelope. Server order is preserved.
func parseChildrenResponse(providerID string, status int, body []byte) ([]models.Option, error) {
	switch {
	case status == http.StatusNotFound:
		return nil, providers.NotFound(providerID, "parent code not in catalog")
	case status == http.StatusTooManyRequests:
		return nil, providers.NewProviderError(providers.ErrorRateLimited, providerID, "rate limited", nil)
	case status >= 500:
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, providerID,
			fmt.Sprintf("unexpected status %d", status), nil)
	case status != http.StatusOK:
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID,
			fmt.Sprintf("unexpected status %d", status), nil)
	}

	var records []regionRecord
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "decode envelope", err)
		}
		records = env.Data
	} else if err := json.Unmarshal(body, &records); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "decode list", err)
	}

	options := make([]models.Option, 0, len(records))
	for _, r := range records {
		code := r.ID
		if code == "" {
			code = r.Code
		}
		if code == "" || r.Name == "" {
			return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "record without code or name", nil)
		}
		options = append(options, models.Option{Code: code, Name: r.Name})
	}
	return options, nil
}
