package influxdb

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

func TestCreateDatabase(t *testing.T) {
	var gotQuery, gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotUser = r.URL.Query().Get("u")
		gotPass = r.URL.Query().Get("p")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(&Config{
		URL:      srv.URL,
		Database: "metrics-local",
		Username: "writer",
		Password: "secret",
	}, discardLogger())

	code, err := client.CreateDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `CREATE DATABASE "metrics-local"`, gotQuery)
	assert.Equal(t, "writer", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestCreateDatabasePassesThroughRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(&Config{URL: srv.URL, Database: "metrics-local"}, discardLogger())

	code, err := client.CreateDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateDatabaseUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(&Config{
		URL:      srv.URL,
		Database: "metrics-local",
		Timeout:  500 * time.Millisecond,
	}, discardLogger())

	code, err := client.CreateDatabase(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestWrite(t *testing.T) {
	var gotDB, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/write", r.URL.Path)
		gotDB = r.URL.Query().Get("db")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(&Config{URL: srv.URL, Database: "metrics-local"}, discardLogger())

	line := "validate_drp,job_id=job-1 PA1=3.2"
	code, err := client.Write(context.Background(), line)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "metrics-local", gotDB)
	assert.Equal(t, line, gotBody)
}

func TestWritePassesThroughRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(&Config{URL: srv.URL, Database: "metrics-local"}, discardLogger())

	code, err := client.Write(context.Background(), "bad line")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWriteOmitsCredentialsWhenUnset(t *testing.T) {
	var hadUser bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hadUser = r.URL.Query().Has("u")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(&Config{URL: srv.URL, Database: "metrics-local"}, discardLogger())

	_, err := client.Write(context.Background(), "m f=1")
	require.NoError(t, err)
	assert.False(t, hadUser)
}
