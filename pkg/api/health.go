package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Store         string  `json:"store"`
	GoVersion     string  `json:"go_version"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemPercent    float64 `json:"mem_used_percent"`
}

// Health reports liveness plus a store ping and host load snapshot.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Store:         "ok",
		GoVersion:     runtime.Version(),
	}

	status := http.StatusOK
	if err := h.store.HealthCheck(); err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		status = http.StatusServiceUnavailable
	}

	// Best effort; an unreadable probe should not fail the health check.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resp.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemPercent = vm.UsedPercent
	}

	h.writeJSON(w, status, resp)
}
