// Package register adapts a backend-held register file into a clipboard
// source, so a shared folder, bucket or Dropbox file can feed the history
// the same way the local pasteboard does.
package register

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mindmorass/clipstack/internal/backend"
	"github.com/mindmorass/clipstack/internal/clipboard"
)

// DefaultPollInterval is the idle polling interval
const DefaultPollInterval = 500 * time.Millisecond

// Source watches a register through its backend
type Source struct {
	backend backend.Backend
	monitor *clipboard.Monitor
}

// New creates a source polling b's modification time. Polling speeds up
// while the register is active and eases back to interval when idle.
func New(b backend.Backend, interval time.Duration) *Source {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	s := &Source{backend: b}
	s.monitor = clipboard.NewAdaptiveMonitor(s.probe, interval)
	return s
}

func (s *Source) probe(ctx context.Context) (string, error) {
	modTime, err := s.backend.ModTime(ctx)
	if errors.Is(err, backend.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return modTime.UTC().Format(time.RFC3339Nano), nil
}

// Location describes the watched register
func (s *Source) Location() string {
	return fmt.Sprintf("%s %s", s.backend.Type(), s.backend.Location())
}

// Snapshot reads the current register record. A register nobody has
// written yet reads as empty.
func (s *Source) Snapshot(ctx context.Context) (clipboard.Snapshot, error) {
	content, err := s.backend.Read(ctx)
	if errors.Is(err, backend.ErrNotFound) {
		return clipboard.Snapshot{}, nil
	}
	if err != nil {
		return clipboard.Snapshot{}, err
	}
	return content.Snapshot(), nil
}

// OnChange sets the change handler
func (s *Source) OnChange(handler clipboard.ChangeHandler) {
	s.monitor.OnChange(handler)
}

// Write replaces the register record with snap
func (s *Source) Write(ctx context.Context, snap clipboard.Snapshot) error {
	content := clipboard.NewContent(snap)
	if content == nil {
		return clipboard.ErrUnsupportedFormat
	}
	return s.monitor.Quiet(ctx, func() error {
		return s.backend.Write(ctx, content)
	})
}

// Start initializes the backend and begins polling
func (s *Source) Start(ctx context.Context) error {
	if err := s.backend.Init(ctx); err != nil {
		return fmt.Errorf("init %s register: %w", s.backend.Type(), err)
	}
	s.monitor.Start()
	log.Printf("Watching register at %s", s.Location())
	return nil
}

// Stop stops polling and releases the backend
func (s *Source) Stop() {
	s.monitor.Stop()
	if err := s.backend.Close(); err != nil {
		log.Printf("Failed to close register backend: %v", err)
	}
}
