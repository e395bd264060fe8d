// Package jobstore implements the HTTP client the delivery worker uses to
// fetch persisted job snapshots from the api-service.
package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quangpb/metrics-dashboard-be/internal/transform"
)

// Client fetches job JSON from the job store API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a job store client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetJob fetches the job snapshot for jobID. On a transport failure it
// returns a nil job, code 500 and the error; on a non-200 upstream answer
// it returns the upstream code with no error so the caller can map it to a
// terminal run state.
func (c *Client) GetJob(ctx context.Context, jobID string) (*transform.JobData, int, error) {
	endpoint := fmt.Sprintf("%s/api/v1/jobs/%s", c.baseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to build job request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to establish connection with the job store",
			slog.String("url", endpoint),
			slog.Any("error", err),
		)
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to fetch job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	var job transform.JobData
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to decode job %s: %w", jobID, err)
	}

	if job.ID == "" {
		job.ID = jobID
	}

	return &job, http.StatusOK, nil
}
