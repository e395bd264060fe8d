package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quangpb/metrics-dashboard-be/internal/api/domain"
	"github.com/quangpb/metrics-dashboard-be/internal/api/model"
	workerdomain "github.com/quangpb/metrics-dashboard-be/internal/worker/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunStorage struct {
	runs map[string]*model.DeliveryRun
	err  error
}

func (f *fakeRunStorage) GetRun(ctx context.Context, runID string) (*model.DeliveryRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	run, ok := f.runs[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func newStatusRouter(store RunStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &StatusHandler{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		storage: store,
	}
	r.GET("/api/v1/status/:run_id", h.GetStatus)
	return r
}

func getStatus(t *testing.T, r *gin.Engine, runID string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/"+runID, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestGetStatusUnknownRun(t *testing.T) {
	r := newStatusRouter(&fakeRunStorage{})

	code, body := getStatus(t, r, uuid.New().String())
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Delivery run not found", body["error"])
}

func TestGetStatusUnparseableRunID(t *testing.T) {
	r := newStatusRouter(&fakeRunStorage{})

	code, body := getStatus(t, r, "not-a-uuid")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Delivery run not found", body["error"])
}

func TestGetStatusInFlightRunsOmitDetail(t *testing.T) {
	for _, state := range []string{workerdomain.RunStatePending, workerdomain.RunStateStarted} {
		t.Run(state, func(t *testing.T) {
			runID := uuid.New().String()
			r := newStatusRouter(&fakeRunStorage{
				runs: map[string]*model.DeliveryRun{
					runID: {RunID: runID, State: state},
				},
			})

			code, body := getStatus(t, r, runID)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, state, body["status"])
			assert.NotContains(t, body, "message")
			assert.NotContains(t, body, "status_code")
		})
	}
}

func TestGetStatusTerminalRunsCarryDetail(t *testing.T) {
	tests := []struct {
		name         string
		state        string
		statusCode   int32
		message      string
		expectedCode float64
	}{
		{
			name:         "succeeded",
			state:        workerdomain.RunStateSucceeded,
			statusCode:   204,
			message:      "job abc successfully written to the time-series store",
			expectedCode: 204,
		},
		{
			name:         "failed write",
			state:        workerdomain.RunStateFailed,
			statusCode:   400,
			message:      "line rejected by the time-series store",
			expectedCode: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runID := uuid.New().String()
			r := newStatusRouter(&fakeRunStorage{
				runs: map[string]*model.DeliveryRun{
					runID: {
						RunID:      runID,
						State:      tt.state,
						StatusCode: sql.NullInt32{Int32: tt.statusCode, Valid: true},
						Message:    sql.NullString{String: tt.message, Valid: true},
					},
				},
			})

			code, body := getStatus(t, r, runID)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.state, body["status"])
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, tt.expectedCode, body["status_code"])
		})
	}
}

func TestGetStatusStorageFailure(t *testing.T) {
	r := newStatusRouter(&fakeRunStorage{err: errors.New("connection refused")})

	code, body := getStatus(t, r, uuid.New().String())
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to get delivery run", body["error"])
}
