package tui

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cosmo_command/internal/client"
	"cosmo_command/internal/graph"
	"cosmo_command/internal/session"
)

// Source delivers snapshots to the dashboard as tea messages
type Source interface {
	// Name describes where snapshots come from
	Name() string

	// Start returns the command producing the first message
	Start() tea.Cmd

	// Next returns the command waiting for the message after the last one
	Next() tea.Cmd

	// Refresh returns a command producing an immediate snapshot, or nil
	Refresh() tea.Cmd

	// Close releases the source
	Close()
}

// Messages emitted by sources
type (
	// SnapshotMsg carries a snapshot. Manual is set for user-requested refreshes,
	// which do not continue the update chain.
	SnapshotMsg struct {
		Snapshot graph.Snapshot
		Manual   bool
	}

	// SourceErrorMsg reports that the source could not produce a snapshot
	SourceErrorMsg struct{ Err error }
)

// SnapshotBuilder produces a snapshot on demand
type SnapshotBuilder interface {
	Build(ctx context.Context) graph.Snapshot
}

// LocalSource builds snapshots from the local sessions directory, rebuilding
// on every watcher event and at least once per interval
type LocalSource struct {
	ctx      context.Context
	cancel   context.CancelFunc
	builder  SnapshotBuilder
	watcher  *session.Watcher
	interval time.Duration
	logger   *log.Logger
}

// NewLocalSource creates a local source. watcher may be nil, in which case the
// source only polls.
func NewLocalSource(builder SnapshotBuilder, watcher *session.Watcher, interval time.Duration, logger *log.Logger) *LocalSource {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalSource{
		ctx:      ctx,
		cancel:   cancel,
		builder:  builder,
		watcher:  watcher,
		interval: interval,
		logger:   logger,
	}
}

func (s *LocalSource) Name() string { return "local" }

func (s *LocalSource) Start() tea.Cmd {
	return s.build(false)
}

func (s *LocalSource) Refresh() tea.Cmd {
	return s.build(true)
}

func (s *LocalSource) Next() tea.Cmd {
	return func() tea.Msg {
		var events <-chan session.ChangeEvent
		var errs <-chan error
		if s.watcher != nil {
			events = s.watcher.Events
			errs = s.watcher.Errors
		}

		timer := time.NewTimer(s.interval)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return nil
		case <-timer.C:
		case <-events:
		case err := <-errs:
			s.logger.Printf("watcher: %v", err)
		}
		return SnapshotMsg{Snapshot: s.builder.Build(s.ctx)}
	}
}

func (s *LocalSource) Close() {
	s.cancel()
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
}

func (s *LocalSource) build(manual bool) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: s.builder.Build(s.ctx), Manual: manual}
	}
}

// RemoteSource subscribes to a snapshot server and reconnects with backoff
type RemoteSource struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *client.WSClient
}

// NewRemoteSource creates a source reading from the WebSocket at url
func NewRemoteSource(url string, logger *log.Logger) *RemoteSource {
	ctx, cancel := context.WithCancel(context.Background())
	return &RemoteSource{
		ctx:    ctx,
		cancel: cancel,
		client: client.NewWSClient(url, logger),
	}
}

func (s *RemoteSource) Name() string { return s.client.URL() }

func (s *RemoteSource) Start() tea.Cmd {
	return s.Next()
}

func (s *RemoteSource) Next() tea.Cmd {
	return func() tea.Msg {
		if !s.client.Connected() {
			if err := s.client.Connect(s.ctx); err != nil {
				if s.ctx.Err() != nil {
					return nil
				}
				return SourceErrorMsg{Err: err}
			}
		}
		snap, err := s.client.Read()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return SourceErrorMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// Refresh is a no-op: the server pushes every change
func (s *RemoteSource) Refresh() tea.Cmd {
	return nil
}

func (s *RemoteSource) Close() {
	s.cancel()
	s.client.Close()
}
