package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/portfolio-monitor/internal/clientdata"
	"github.com/aristath/portfolio-monitor/internal/database"
	"github.com/aristath/portfolio-monitor/internal/domain"
	"github.com/aristath/portfolio-monitor/internal/modules/charts"
	"github.com/aristath/portfolio-monitor/internal/modules/monitor"
	monitorhandlers "github.com/aristath/portfolio-monitor/internal/modules/monitor/handlers"
	"github.com/aristath/portfolio-monitor/internal/scheduler"
	testingpkg "github.com/aristath/portfolio-monitor/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	db := testingpkg.NewTestDB(t)

	repo := clientdata.NewRepository(db.Conn())
	require.NoError(t, repo.Store(clientdata.TablePriceHistory, "AAPL|x|y", []int{1}, time.Hour))

	sched := scheduler.New(log)
	require.NoError(t, sched.AddJob("@hourly", clientdata.NewCleanupJob(repo, log)))

	service := monitor.NewService(&testingpkg.MockPriceProvider{}, monitor.Defaults{
		Holdings:     []domain.Holding{{Ticker: "AAPL", InvestedAmount: 100, StopLossPercent: 10}},
		StopLoss:     10,
		LookbackDays: 365,
	}, log)

	srv := New(Config{
		Log:       log,
		CacheDB:   db,
		Cache:     repo,
		Scheduler: sched,
		Monitor:   monitorhandlers.NewHandler(service, charts.NewService(0, log), "EUR", log),
		Port:      0,
		DevMode:   true,
		Version:   "test",
	})
	return srv, db
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHealth_ClosedDatabase(t *testing.T) {
	srv, db := setupServer(t)
	require.NoError(t, db.Close())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSystemStatus(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Equal(t, 1, status.ScheduledJobs)
	assert.Positive(t, status.Goroutines)
	require.NotNil(t, status.Cache)
	assert.Equal(t, database.MemoryPath, status.Cache.Path)
	assert.Equal(t, int64(1), status.Cache.Entries[clientdata.TablePriceHistory])
	assert.Equal(t, int64(0), status.Cache.Entries[clientdata.TableCurrentPrices])
}

func TestMonitorRoutesMounted(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/portfolio/defaults", http.StatusOK},
		{http.MethodGet, "/api/portfolio/charts/allocation.png", http.StatusOK},
		{http.MethodPost, "/api/portfolio/check", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/portfolio/check", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
