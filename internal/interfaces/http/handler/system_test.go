package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("sio-cms", "1.2.3", nil)
	router := gin.New()
	router.GET("/system/info", h.GetSystemInfo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/info", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	data(t, w, &info)
	assert.Equal(t, "sio-cms", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Uptime)
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		status int
		want   HealthResponse
	}{
		{name: "no database", status: http.StatusOK, want: HealthResponse{Status: "ok", Database: "skipped"}},
		{name: "database up", db: pingFunc(func(context.Context) error { return nil }), status: http.StatusOK, want: HealthResponse{Status: "ok", Database: "ok"}},
		{name: "database down", db: pingFunc(func(context.Context) error { return errors.New("refused") }), status: http.StatusServiceUnavailable, want: HealthResponse{Status: "degraded", Database: "unreachable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewSystemHandler("sio-cms", "dev", tt.db).Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, tt.status, w.Code)
			var got HealthResponse
			data(t, w, &got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSystemHandler_HealthPingsSQLDB(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	router := gin.New()
	router.GET("/health", NewSystemHandler("sio-cms", "dev", db).Health)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
