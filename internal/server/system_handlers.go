package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/portfolio-monitor/internal/clientdata"
	"github.com/aristath/portfolio-monitor/internal/database"
	"github.com/aristath/portfolio-monitor/internal/scheduler"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves process and cache monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	version     string
	cacheDB     *database.DB
	cache       *clientdata.Repository
	scheduler   *scheduler.Scheduler
}

// NewSystemHandlers creates system handlers. Any dependency may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	cacheDB *database.DB,
	cache *clientdata.Repository,
	sched *scheduler.Scheduler,
	version string,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		version:     version,
		cacheDB:     cacheDB,
		cache:       cache,
		scheduler:   sched,
	}
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status        string       `json:"status"`
	Version       string       `json:"version,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Goroutines    int          `json:"goroutines"`
	CPUPercent    float64      `json:"cpu_percent"`
	MemoryPercent float64      `json:"memory_percent"`
	HeapAllocMB   float64      `json:"heap_alloc_mb"`
	ScheduledJobs int          `json:"scheduled_jobs"`
	Cache         *CacheStatus `json:"cache,omitempty"`
	LastUpdated   string       `json:"last_updated"`
}

// CacheStatus describes the price cache database
type CacheStatus struct {
	Path      string           `json:"path"`
	SizeMB    float64          `json:"size_mb"`
	WALSizeMB float64          `json:"wal_size_mb"`
	Entries   map[string]int64 `json:"entries"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		HeapAllocMB:   float64(memStats.HeapAlloc) / 1024 / 1024,
		Cache:         h.cacheStatus(),
		LastUpdated:   time.Now().Format(time.RFC3339),
	}
	if h.scheduler != nil {
		response.ScheduledJobs = h.scheduler.JobCount()
	}

	h.writeJSON(w, response)
}

func (h *SystemHandlers) cacheStatus() *CacheStatus {
	if h.cacheDB == nil {
		return nil
	}

	status := &CacheStatus{
		Path:    h.cacheDB.Path(),
		Entries: make(map[string]int64),
	}

	stats, err := h.cacheDB.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get cache database stats")
	} else {
		status.SizeMB = float64(stats.SizeBytes) / 1024 / 1024
		status.WALSizeMB = float64(stats.WALSizeBytes) / 1024 / 1024
	}

	if h.cache != nil {
		for _, table := range clientdata.AllTables {
			count, err := h.cache.Count(table)
			if err != nil {
				h.log.Warn().Err(err).Str("table", table).Msg("Failed to count cache entries")
				continue
			}
			status.Entries[table] = count
		}
	}

	return status
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample
// blocks for 100ms.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
