// Package httpserver exposes a live analysis run over HTTP: a rendered
// report page for browsers and a small JSON API for tooling.
package httpserver

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jlogtools/jlog/internal/aggregate"
	"github.com/jlogtools/jlog/internal/model"
	"github.com/jlogtools/jlog/internal/report"
	"github.com/jlogtools/jlog/internal/source"
)

// Snapshot is one consistent view of a run. Providers build it under their
// own locking; the server never touches live aggregator state.
type Snapshot struct {
	Source  string
	Status  source.Status
	Totals  [8]int
	Series  []aggregate.BucketCount
	Top     []aggregate.Count
	Signals []model.PatternSignal
	Report  report.Data
}

// Provider supplies snapshots on demand.
type Provider interface {
	Snapshot() Snapshot
}

// Server serves the report page and stats API for a running analysis.
type Server struct {
	addr      string
	provider  Provider
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a server bound to addr.
func NewServer(addr string, provider Provider) *Server {
	if addr == "" {
		addr = "127.0.0.1:8844"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:     addr,
		provider: provider,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleIndex)
	r.GET("/api/stats", s.handleStats)
	r.GET("/api/health", s.handleHealth)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the bind address.
func (s *Server) Addr() string { return s.addr }

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.provider.Snapshot()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.Render(c.Writer, snap.Report); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

func (s *Server) handleStats(c *gin.Context) {
	snap := s.provider.Snapshot()

	priorities := make(map[string]int, 8)
	for p, count := range snap.Totals {
		if count > 0 {
			priorities[model.PriorityName(p)] = count
		}
	}

	signals := make([]gin.H, 0, len(snap.Signals))
	for _, sig := range snap.Signals {
		signals = append(signals, gin.H{
			"kind":        sig.Kind.Label(),
			"message":     sig.Message,
			"description": sig.Description,
			"severity":    sig.Severity.String(),
			"count":       sig.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"source":       snap.Source,
		"lines":        snap.Status.Lines,
		"entries":      snap.Status.Entries,
		"parse_errors": snap.Status.ParseErrors,
		"completed":    snap.Status.Completed,
		"connected":    snap.Status.Connected,
		"priorities":   priorities,
		"time_series":  snap.Series,
		"top_messages": snap.Top,
		"signals":      signals,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.provider.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"entries": snap.Status.Entries,
	})
}
