package adminserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/keyden/keyden-go/internal/infra/buildinfo"
	"github.com/keyden/keyden-go/internal/telemetry/logger"
	"github.com/keyden/keyden-go/internal/telemetry/metric"
)

// Config holds admin server configuration.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string

	// KeyCount reports the current number of stored keys, shown in
	// the health payload. May be nil.
	KeyCount func() int
}

// Server is the HTTP admin server.
type Server struct {
	cfg     Config
	httpSrv *http.Server
	log     logger.Logger
	started time.Time
	ln      net.Listener
}

// healthResponse is the /healthz payload.
type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	GoVersion     string `json:"go_version"`
	Keys          int    `json:"keys"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// New creates an admin server serving health and metrics endpoints.
func New(cfg Config, metrics *metric.Registry, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		cfg: cfg,
		log: log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.started = time.Now()

	s.log.Info("admin server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("admin server failed", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address. Valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()

	resp := healthResponse{
		Status:        "ok",
		Version:       info.Version,
		Commit:        info.Commit,
		GoVersion:     info.GoVersion,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if s.cfg.KeyCount != nil {
		resp.Keys = s.cfg.KeyCount()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("failed to write health response", "error", err)
	}
}
