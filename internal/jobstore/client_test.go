package jobstore

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/job-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "job-1",
			"env": "jenkins",
			"measurements": [{"metric": "validate_drp.PA1", "value": 3.2}],
			"packages": [{"name": "validate_drp", "version": "v1.0"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, discardLogger())

	job, code, err := client.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "jenkins", job.Env)
	require.Len(t, job.Measurements, 1)
	assert.Equal(t, "validate_drp.PA1", job.Measurements[0].Metric)
	require.Len(t, job.Packages, 1)
	assert.Equal(t, "v1.0", job.Packages[0].Version)
}

func TestGetJobDefaultsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"env": "jenkins"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, discardLogger())

	job, _, err := client.GetJob(context.Background(), "job-7")
	require.NoError(t, err)
	assert.Equal(t, "job-7", job.ID)
}

func TestGetJobNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, discardLogger())

	job, code, err := client.GetJob(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetJobUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, 500*time.Millisecond, discardLogger())

	job, code, err := client.GetJob(context.Background(), "job-1")
	require.Error(t, err)
	assert.Nil(t, job)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestGetJobMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0, discardLogger())

	job, code, err := client.GetJob(context.Background(), "job-1")
	require.Error(t, err)
	assert.Nil(t, job)
	assert.Equal(t, http.StatusInternalServerError, code)
}
