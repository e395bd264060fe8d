// Package influxdb implements the HTTP client for the line-protocol
// compatible time-series store.
package influxdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the time-series store connection configuration.
type Config struct {
	URL      string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the time-series store HTTP API.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new time-series store client with a bounded request
// timeout so a stalled store cannot leak a worker indefinitely.
func NewClient(config *Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// CreateDatabase issues an idempotent CREATE DATABASE for the configured
// database. It returns the upstream status code: 200 on success, 400 on a
// bad query, 401 on an unauthenticated request. A transport failure is
// reported as 500 together with the error.
func (c *Client) CreateDatabase(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("CREATE DATABASE %q", c.config.Database))
	c.setCredentials(params)

	endpoint := fmt.Sprintf("%s/query?%s", strings.TrimRight(c.config.URL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to build create database request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Could not create time-series database",
			slog.String("database", c.config.Database),
			slog.Any("error", err),
		)
		return http.StatusInternalServerError, fmt.Errorf("failed to create database %q: %w", c.config.Database, err)
	}
	defer drainAndClose(resp.Body)

	return resp.StatusCode, nil
}

// Write posts one or more newline-joined encoded lines to the store. It
// returns the upstream status code: 204 on success, 400 on a malformed
// line, 401 on auth failure. A transport failure is reported as 500
// together with the error.
func (c *Client) Write(ctx context.Context, line string) (int, error) {
	params := url.Values{}
	params.Set("db", c.config.Database)
	c.setCredentials(params)

	endpoint := fmt.Sprintf("%s/write?%s", strings.TrimRight(c.config.URL, "/"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(line))
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to build write request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Could not write line to the time-series store",
			slog.String("line", line),
			slog.Any("error", err),
		)
		return http.StatusInternalServerError, fmt.Errorf("failed to write line: %w", err)
	}
	defer drainAndClose(resp.Body)

	return resp.StatusCode, nil
}

// setCredentials adds store credentials to the query params when present.
func (c *Client) setCredentials(params url.Values) {
	if c.config.Username != "" {
		params.Set("u", c.config.Username)
		params.Set("p", c.config.Password)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
