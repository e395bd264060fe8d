package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quangpb/metrics-dashboard-be/internal/api/model"
	"github.com/quangpb/metrics-dashboard-be/internal/api/storage"
	"github.com/quangpb/metrics-dashboard-be/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobStorage struct {
	resolved map[string]bool
}

func (f *fakeJobStorage) CreateJob(ctx context.Context, job *storage.NewJob) error { return nil }
func (f *fakeJobStorage) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	return nil, nil
}
func (f *fakeJobStorage) GetJobData(ctx context.Context, jobID string) (*transform.JobData, error) {
	return nil, nil
}
func (f *fakeJobStorage) ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error) {
	return nil, nil
}
func (f *fakeJobStorage) DeleteJob(ctx context.Context, jobID string) error { return nil }
func (f *fakeJobStorage) ResolveMetrics(ctx context.Context, names []string) (map[string]bool, error) {
	return f.resolved, nil
}
func (f *fakeJobStorage) GetBlob(ctx context.Context, identifier string) (*model.Blob, error) {
	return nil, nil
}
func (f *fakeJobStorage) CreateRun(ctx context.Context, runID, jobID string) error { return nil }
func (f *fakeJobStorage) DeleteRun(ctx context.Context, runID string) error        { return nil }

func newJobRouter(store JobStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &JobHandler{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage: store,
		baseURL: "http://localhost:8080",
	}
	r.POST("/api/v1/jobs", h.CreateJob)
	return r
}

func postJob(t *testing.T, r *gin.Engine, payload string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestCreateJobRejectsMalformedBody(t *testing.T) {
	r := newJobRouter(&fakeJobStorage{})

	code, body := postJob(t, r, `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestCreateJobRejectsMissingPackages(t *testing.T) {
	r := newJobRouter(&fakeJobStorage{})

	code, body := postJob(t, r, `{
		"meta": {"env": {"env_name": "jenkins"}},
		"measurements": []
	}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing packages metadata.", body["error"])
}

func TestCreateJobRejectsMeasurementWithoutMetric(t *testing.T) {
	r := newJobRouter(&fakeJobStorage{})

	code, body := postJob(t, r, `{
		"meta": {"env": {"env_name": "jenkins"}, "packages": {}},
		"measurements": [{"value": 3.2}]
	}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Each measurement must name its metric.", body["error"])
}

func TestCreateJobRejectsEnvWithoutName(t *testing.T) {
	r := newJobRouter(&fakeJobStorage{})

	code, body := postJob(t, r, `{
		"meta": {"env": {"url": "https://ci.example.org"}, "packages": {}},
		"measurements": []
	}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing env_name in env metadata.", body["error"])
}

func TestExtractEnvName(t *testing.T) {
	tests := []struct {
		name     string
		meta     map[string]any
		expected string
		wantErr  string
	}{
		{
			name:     "absent env defaults to unknown",
			meta:     map[string]any{},
			expected: "unknown",
		},
		{
			name:     "env_name is used",
			meta:     map[string]any{"env": map[string]any{"env_name": "jenkins"}},
			expected: "jenkins",
		},
		{
			name:    "env must be a mapping",
			meta:    map[string]any{"env": "jenkins"},
			wantErr: "meta.env must be a mapping",
		},
		{
			name:    "env without env_name is rejected",
			meta:    map[string]any{"env": map[string]any{"url": "x"}},
			wantErr: "Missing env_name in env metadata.",
		},
		{
			name:    "env_name must be a string",
			meta:    map[string]any{"env": map[string]any{"env_name": 7.0}},
			wantErr: "meta.env.env_name must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := extractEnvName(tt.meta)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestExtractPackages(t *testing.T) {
	meta := map[string]any{
		"packages": map[string]any{
			"validate_drp": map[string]any{
				"version": "v1.0",
				"git_sha": "abc123",
			},
			"afw": map[string]any{},
		},
	}

	packages, err := extractPackages(meta)
	require.NoError(t, err)
	require.Len(t, packages, 2)

	byName := map[string]model.Package{}
	for _, p := range packages {
		byName[p.Name] = p
	}
	assert.Equal(t, "v1.0", byName["validate_drp"].Version)
	assert.Equal(t, "abc123", byName["validate_drp"].GitSHA)
	assert.Empty(t, byName["afw"].Version)
}

func TestExtractPackagesMissing(t *testing.T) {
	_, err := extractPackages(map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "Missing packages metadata.", err.Error())
}

func TestExtractPackagesNotAMapping(t *testing.T) {
	_, err := extractPackages(map[string]any{"packages": []any{"validate_drp"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meta.packages must be a mapping")
}
