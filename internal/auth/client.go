// Package auth is the boundary to the hosted auth provider. Sessions are
// created and stored by the provider; this client only verifies tokens
// and probes provider health. No credentials are handled here.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
	health  healthpb.HealthClient
}

// NewClient dials the provider's gRPC health endpoint (non-blocking) and
// prepares the HTTP verify client. healthAddr may be empty when the
// provider exposes no health port.
func NewClient(baseURL, healthAddr string) (*Client, error) {
	c := &Client{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
	if healthAddr != "" {
		conn, err := grpc.Dial(healthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		c.health = healthpb.NewHealthClient(conn)
	}
	return c, nil
}

// Verify resolves token to the caller's user id via GET /v1/verify.
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		var out struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			return "", err
		}
		if out.UserID == "" {
			return "", ErrUnauthorized
		}
		return out.UserID, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	default:
		return "", fmt.Errorf("auth verify error: %s", res.Status)
	}
}

// Healthy reports whether the provider answers its gRPC health check.
// With no health endpoint configured the provider is assumed up.
func (c *Client) Healthy(ctx context.Context) bool {
	if c.health == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return false
	}
	return res.GetStatus() == healthpb.HealthCheckResponse_SERVING
}
