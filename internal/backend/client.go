package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scanguard/internal/models"
)

const maxBodyBytes = 4 << 20

// Endpoint paths relative to the API base URL.
const (
	PathStatistics = "/radar/estatisticas"
	PathReadings   = "/radar/leituras"
	PathAlerts     = "/alertas"
	PathHealth     = "/health"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Device  string
	// Timeout bounds each request. Zero leaves requests unbounded.
	Timeout time.Duration
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d", e.Path, e.Code)
}

// Client reads the radar backend API.
type Client struct {
	baseURL string
	apiKey  string
	device  string
	timeout time.Duration
	client  *http.Client
}

// New creates a backend client with a pooled transport.
func New(opts Options) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("backend base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		device:  opts.Device,
		timeout: opts.Timeout,
		client:  &http.Client{Transport: transport},
	}, nil
}

// Statistics fetches the aggregate snapshot.
func (c *Client) Statistics(ctx context.Context) (models.Statistics, error) {
	body, err := c.get(ctx, PathStatistics, c.query(0))
	if err != nil {
		return models.Statistics{}, err
	}
	return models.DecodeStatistics(body)
}

// Readings fetches up to limit recent readings, newest first.
func (c *Client) Readings(ctx context.Context, limit int) (models.ReadingsPage, error) {
	body, err := c.get(ctx, PathReadings, c.query(limit))
	if err != nil {
		return models.ReadingsPage{}, err
	}
	return models.DecodeReadings(body)
}

// Alerts fetches up to limit recent alerts.
func (c *Client) Alerts(ctx context.Context, limit int) ([]models.Alert, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, PathAlerts, q)
	if err != nil {
		return nil, err
	}
	return models.DecodeAlerts(body)
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	body, err := c.get(ctx, PathHealth, nil)
	if err != nil {
		return models.Health{}, err
	}
	return models.DecodeHealth(body)
}

func (c *Client) query(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if c.device != "" {
		q.Set("dispositivo", c.device)
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: request timed out", path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Path: path, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", path, err)
	}
	return body, nil
}
