package clipboard

import (
	"context"
	"errors"
)

// ErrUnsupportedFormat is returned when a driver cannot write a snapshot shape
var ErrUnsupportedFormat = errors.New("unsupported clipboard format")

// ChangeHandler is called when the register may have changed.
// It carries no payload: the receiver reads Snapshot itself.
type ChangeHandler func()

// Source is a shared "current content" register
type Source interface {
	// Snapshot reads the present register state
	Snapshot(ctx context.Context) (Snapshot, error)

	// OnChange sets the level-triggered change handler
	OnChange(handler ChangeHandler)

	// Write pushes a snapshot into the register
	Write(ctx context.Context, snap Snapshot) error

	// Start begins change detection
	Start(ctx context.Context) error

	// Stop ends change detection
	Stop()
}
