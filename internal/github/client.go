// Package github fetches Copilot usage metrics and seat assignments from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/copilot-insights/internal/config"
	"github.com/smallbiznis/copilot-insights/internal/observability/tracing"
	"go.uber.org/zap"
)

const (
	apiVersion   = "2022-11-28"
	maxBodyBytes = 64 << 20
	maxErrorBody = 4 << 10
)

var (
	ErrMetricsURLNotConfigured = errors.New("github_metrics_url_not_configured")
	ErrBillingURLNotConfigured = errors.New("github_billing_url_not_configured")
)

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github api returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Reason() string { return "upstream_status" }

// SeatsPage is the billing seats response.
type SeatsPage struct {
	TotalSeats int               `json:"total_seats"`
	Seats      []json.RawMessage `json:"seats"`
}

type Client struct {
	http *http.Client
	cfg  config.GitHubConfig
	log  *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	timeout := time.Duration(cfg.GitHub.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		cfg:  cfg.GitHub,
		log:  log.Named("github.client"),
	}
}

// NewClientWithHTTP is used by tests to point the client at a local server.
func NewClientWithHTTP(cfg config.GitHubConfig, httpClient *http.Client, log *zap.Logger) *Client {
	return &Client{http: httpClient, cfg: cfg, log: log.Named("github.client")}
}

// FetchMetrics returns the raw metrics payload, an object or an array of objects.
func (c *Client) FetchMetrics(ctx context.Context) ([]byte, error) {
	if strings.TrimSpace(c.cfg.MetricsURL) == "" {
		return nil, ErrMetricsURLNotConfigured
	}
	return c.get(ctx, c.cfg.MetricsURL)
}

// FetchSeats returns the current seat assignments.
func (c *Client) FetchSeats(ctx context.Context) (SeatsPage, error) {
	if strings.TrimSpace(c.cfg.BillingURL) == "" {
		return SeatsPage{}, ErrBillingURLNotConfigured
	}
	body, err := c.get(ctx, c.cfg.BillingURL)
	if err != nil {
		return SeatsPage{}, err
	}
	var page SeatsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return SeatsPage{}, fmt.Errorf("decode seats response: %w", err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token := strings.TrimSpace(c.cfg.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn("github request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	c.log.Debug("github request completed",
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)),
	)
	return body, nil
}
