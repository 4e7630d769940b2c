// Package kodepos is the HTTP adapter for the village postal-code lookup.
package kodepos

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

	"alumni/internal/region/providers"
)

// Client resolves postal codes over HTTP. It never retries.
type Client struct {
	id      string
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

func NewClient(id, baseURL string, timeout time.Duration) *Client {
	return &Client{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("alumni/region/kodepos"),
	}
}

// ResolvePostalCode returns nil when the village has no postal code on
// record, including when the service does not know the village.
func (c *Client) ResolvePostalCode(ctx context.Context, villageCode string) (*string, error) {
	if villageCode == "" {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "empty village code", providers.ErrInvalidRequest)
	}

	ctx, span := c.tracer.Start(ctx, "kodepos.ResolvePostalCode",
		trace.WithAttributes(attribute.String("region.village", villageCode)))
	defer span.End()

	target := c.baseURL + "/villages/" + url.PathEscape(villageCode) + "/postal-code"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		err = transportError(ctx, c.id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, transportError(ctx, c.id, err)
	}
	postal, err := parsePostalResponse(c.id, resp.StatusCode, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(providers.GetCategory(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Bool("region.postal_found", postal != nil))
	return postal, nil
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

type postalResponse struct {
	VillageCode string `json:"village_code"`
	PostalCode  string `json:"postal_code"`
}

func parsePostalResponse(providerID string, status int, body []byte) (*string, error) {
	switch {
	case status == http.StatusNotFound:
		return nil, nil
	case status == http.StatusTooManyRequests:
		return nil, providers.NewProviderError(providers.ErrorRateLimited, providerID, "rate limited", nil)
	case status >= 500:
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, providerID,
			fmt.Sprintf("unexpected status %d", status), nil)
	case status != http.StatusOK:
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID,
			fmt.Sprintf("unexpected status %d", status), nil)
	}

	var payload postalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, providerID, "decode postal code", err)
	}
	postal := strings.TrimSpace(payload.PostalCode)
	if postal == "" {
		return nil, nil
	}
	return &postal, nil
}
