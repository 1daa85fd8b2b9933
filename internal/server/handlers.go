package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/sabarim/brokerrelay/internal/instruments"
	"github.com/sabarim/brokerrelay/internal/relayerr"
)

const welcomeText = "Welcome to the Proxy Server"

// handleRoot echoes a code/client pair back as JSON, otherwise greets
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	client := r.URL.Query().Get("client")

	if code != "" && client != "" {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"code":   code,
			"client": client,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(welcomeText))
}

// handleSymbols returns the call/put strikes and expiries of an underlying
// GET /symbols?exchangeSymbol=NSE&masterSymbol=NIFTY
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	exchangeSymbol := r.URL.Query().Get("exchangeSymbol")
	masterSymbol := r.URL.Query().Get("masterSymbol")

	if exchangeSymbol == "" || masterSymbol == "" {
		s.writeError(w, r, relayerr.BadRequest("exchangeSymbol and masterSymbol are required"))
		return
	}

	result, err := s.instruments.Lookup(exchangeSymbol, masterSymbol)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleBrokers returns the broker metadata table
func (s *Server) handleBrokers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.brokers.Brokers())
}

// handleBrokerClientID returns the primary broker's client id
func (s *Server) handleBrokerClientID(w http.ResponseWriter, r *http.Request) {
	broker, _ := s.brokers.Primary()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"brokerClientId": broker.BrokerClientID,
	})
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status         string                  `json:"status"`
	Version        string                  `json:"version"`
	Uptime         string                  `json:"uptime"`
	Goroutines     int                     `json:"goroutines"`
	Memory         MemoryStats             `json:"memory"`
	SecurityMaster *instruments.MasterInfo `json:"securityMaster,omitempty"`
	MasterError    string                  `json:"securityMasterError,omitempty"`
	Brokers        map[string]string       `json:"brokers"`
}

// MemoryStats covers the host and this process
type MemoryStats struct {
	HostUsedPercent float64 `json:"hostUsedPercent"`
	HostTotalMB     uint64  `json:"hostTotalMb"`
	ProcessAllocMB  uint64  `json:"processAllocMb"`
	ProcessSysMB    uint64  `json:"processSysMb"`
}

// handleHealth reports uptime, memory and whether the security master is readable
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "healthy",
		Version:    s.version,
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Brokers:    make(map[string]string),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	resp.Memory.ProcessAllocMB = m.Alloc / 1024 / 1024
	resp.Memory.ProcessSysMB = m.Sys / 1024 / 1024

	if vm, err := mem.VirtualMemory(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		resp.Memory.HostUsedPercent = vm.UsedPercent
		resp.Memory.HostTotalMB = vm.Total / 1024 / 1024
	}

	if info, err := s.instruments.Stat(); err != nil {
		resp.Status = "degraded"
		resp.MasterError = err.Error()
	} else {
		resp.SecurityMaster = &info
	}

	for _, b := range s.brokers.Brokers() {
		resp.Brokers[b.BrokerName] = b.Status
	}

	s.writeJSON(w, http.StatusOK, resp)
}
