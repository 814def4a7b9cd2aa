// Package server exposes snapshots over HTTP and pushes them to WebSocket
// subscribers as the sessions directory changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cosmo_command/internal/config"
	"cosmo_command/internal/graph"
	"cosmo_command/internal/session"
)

// SnapshotBuilder produces a fresh snapshot on every call
type SnapshotBuilder interface {
	Build(ctx context.Context) graph.Snapshot
}

// Server serves snapshots over HTTP and WebSocket
type Server struct {
	cfg         *config.Config
	builder     SnapshotBuilder
	broadcaster *Broadcaster
	router      *gin.Engine
	logger      *log.Logger

	mu     sync.RWMutex
	latest *graph.Snapshot
	seq    uint64
}

// New creates a server for cfg backed by builder (nil logger uses log.Default())
func New(cfg *config.Config, builder SnapshotBuilder, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware(cfg.Server.AllowedOrigins))

	s := &Server{
		cfg:         cfg,
		builder:     builder,
		broadcaster: NewBroadcaster(logger),
		router:      router,
		logger:      logger,
	}

	router.GET("/", s.handleSnapshot)
	router.GET("/health", s.handleHealth)
	router.GET("/ws", s.handleWS)

	api := router.Group("/api")
	{
		api.GET("/sessions", s.handleSnapshot)
		api.GET("/commands", s.handleCommands)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

// Run serves until ctx is cancelled. Snapshots are rebuilt every poll
// interval and whenever changes arrives (changes may be nil).
func (s *Server) Run(ctx context.Context, changes <-chan session.ChangeEvent) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Poll(ctx, changes)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("server: listening on http://%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.broadcaster.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Poll rebuilds the snapshot on every tick and change notification until
// ctx is cancelled
func (s *Server) Poll(ctx context.Context, changes <-chan session.ChangeEvent) {
	ticker := time.NewTicker(s.cfg.Server.PollInterval)
	defer ticker.Stop()

	s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.Refresh(ctx)
		}
	}
}

// Refresh builds a snapshot and pushes it to subscribers when it differs from
// the previous one. It reports whether a push happened.
func (s *Server) Refresh(ctx context.Context) bool {
	snap := s.builder.Build(ctx)
	if ctx.Err() != nil {
		return false
	}

	s.mu.Lock()
	if s.latest != nil && s.latest.Equal(snap) {
		s.mu.Unlock()
		return false
	}
	s.latest = &snap
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	data, err := EncodeSnapshot(seq, snap)
	if err != nil {
		s.logger.Printf("server: encode snapshot: %v", err)
		return false
	}
	s.broadcaster.Broadcast(data)
	return true
}

// Latest returns the most recently polled snapshot
func (s *Server) Latest() (graph.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return graph.Snapshot{}, false
	}
	return *s.latest, true
}

// ClientCount returns the number of connected WebSocket clients
func (s *Server) ClientCount() int {
	return s.broadcaster.ClientCount()
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.builder.Build(c.Request.Context()))
}

func (s *Server) handleCommands(c *gin.Context) {
	snap := s.builder.Build(c.Request.Context())
	c.JSON(http.StatusOK, snap.Commands)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UnixMilli(),
	})
}

func (s *Server) handleWS(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), s.cfg.Server.AllowedOrigins)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Printf("ws: upgrade error: %v", err)
		return
	}

	initial, err := s.initialMessage(c.Request.Context())
	if err != nil {
		s.logger.Printf("ws: encode snapshot: %v", err)
	}

	client := s.broadcaster.AddClient(conn, initial)
	s.logger.Printf("ws: client %s connected from %s", client.id, c.Request.RemoteAddr)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(client)
			s.logger.Printf("ws: client %s disconnected", client.id)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// initialMessage encodes the latest snapshot, building one if no poll has run yet
func (s *Server) initialMessage(ctx context.Context) ([]byte, error) {
	snap, ok := s.Latest()
	if !ok {
		snap = s.builder.Build(ctx)
	}

	s.mu.RLock()
	seq := s.seq
	s.mu.RUnlock()
	return EncodeSnapshot(seq, snap)
}
