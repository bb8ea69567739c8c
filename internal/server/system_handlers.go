package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// systemHealthResponse reports process and host resource usage.
type systemHealthResponse struct {
	UptimeSeconds  int64   `json:"uptimeSeconds"`
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heapAllocBytes"`
	HostMemUsedPct float64 `json:"hostMemUsedPct"`
	HostMemTotal   uint64  `json:"hostMemTotal"`
	HostMemAvail   uint64  `json:"hostMemAvailable"`
}

// handleSystemHealth handles GET /api/system/health.
func (s *Server) handleSystemHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := systemHealthResponse{
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: memStats.HeapAlloc,
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response.HostMemUsedPct = vm.UsedPercent
		response.HostMemTotal = vm.Total
		response.HostMemAvail = vm.Available
	} else {
		s.log.Warn().Err(err).Msg("Failed to read host memory stats")
	}

	s.writeJSON(w, http.StatusOK, response)
}
