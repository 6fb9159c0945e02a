package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	name string
	err  error
}

func (b fakeBroker) Name() string                   { return b.name }
func (b fakeBroker) Ping(ctx context.Context) error { return b.err }

type readyResponse struct {
	Status string                       `json:"status"`
	Checks map[string]HealthCheckResult `json:"checks"`
}

func TestHealth_ReturnsOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		broker     fakeBroker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all dependencies up",
			broker:     fakeBroker{name: "rabbitmq"},
			wantStatus: http.StatusOK,
			wantBody:   "ready",
		},
		{
			name:       "database down",
			dbErr:      errors.New("connection refused"),
			broker:     fakeBroker{name: "rabbitmq"},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not_ready",
		},
		{
			name:       "broker down",
			broker:     fakeBroker{name: "redis", err: errors.New("i/o timeout")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()

			ping := mock.ExpectPing()
			if tt.dbErr != nil {
				ping.WillReturnError(tt.dbErr)
			}

			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			w := httptest.NewRecorder()

			Ready(db, tt.broker)(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var response readyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantBody, response.Status)
			require.Contains(t, response.Checks, "database")
			require.Contains(t, response.Checks, tt.broker.name)

			if tt.dbErr != nil {
				assert.Equal(t, "down", response.Checks["database"].Status)
				assert.Equal(t, tt.dbErr.Error(), response.Checks["database"].Error)
			}
			if tt.broker.err != nil {
				assert.Equal(t, "down", response.Checks[tt.broker.name].Status)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthCheckResult_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(HealthCheckResult{Status: "up"})
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "latency_ms")
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "metadata")
}
