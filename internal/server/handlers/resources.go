package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// ResourcesResponse is the body of GET /api/resources. Probe failures
// zero the affected fields and set Degraded rather than failing the
// request; this endpoint must stay usable while diagnosing a sick host.
type ResourcesResponse struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  float64 `json:"memory_used_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	Goroutines    int     `json:"goroutines"`
	QueueDepth    int     `json:"queue_depth"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Degraded      bool    `json:"degraded"`
}

// Resources handles GET /api/resources.
func (s *Service) Resources(w http.ResponseWriter, r *http.Request) {
	resp := ResourcesResponse{
		Goroutines:    runtime.NumGoroutine(),
		QueueDepth:    s.dispatcher.QueueDepth(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}

	if percents, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(percents) > 0 {
		resp.CPUPercent = percents[0]
	} else {
		resp.Degraded = true
		s.log.Warn("cpu probe failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		resp.MemoryPercent = vm.UsedPercent
		resp.MemoryUsedMB = float64(vm.Used) / (1024 * 1024)
		resp.MemoryTotalMB = float64(vm.Total) / (1024 * 1024)
	} else {
		resp.Degraded = true
		s.log.Warn("memory probe failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, resp)
}
