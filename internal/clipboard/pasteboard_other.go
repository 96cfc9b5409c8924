//go:build !darwin

package clipboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	xclip "golang.design/x/clipboard"
)

// Pasteboard is the system clipboard on platforms served by golang.design/x/clipboard.
// That package has no HTML format, so snapshots carry text or images only.
type Pasteboard struct {
	onChange ChangeHandler
	cancel   context.CancelFunc
	running  bool
	mu       sync.Mutex
}

// NewPasteboard creates a pasteboard source. The interval is unused here:
// the underlying watcher polls on its own schedule.
func NewPasteboard(_ time.Duration) *Pasteboard {
	return &Pasteboard{}
}

// Snapshot reads the clipboard, preferring image data
func (p *Pasteboard) Snapshot(ctx context.Context) (Snapshot, error) {
	if data := xclip.Read(xclip.FmtImage); len(data) > 0 {
		return ImageSnapshot(data), nil
	}
	return TextSnapshot(string(xclip.Read(xclip.FmtText))), nil
}

// OnChange sets the change handler
func (p *Pasteboard) OnChange(handler ChangeHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = handler
}

// Write replaces the clipboard contents
func (p *Pasteboard) Write(ctx context.Context, snap Snapshot) error {
	var changed <-chan struct{}
	switch {
	case snap.HasImage && len(snap.Image) > 0:
		changed = xclip.Write(xclip.FmtImage, snap.Image)
	case snap.HasHTML:
		changed = xclip.Write(xclip.FmtText, []byte(snap.HTML))
	case snap.HasText:
		changed = xclip.Write(xclip.FmtText, []byte(snap.Text))
	default:
		return ErrUnsupportedFormat
	}
	if changed == nil {
		return ErrUnsupportedFormat
	}
	return nil
}

// Start initializes the clipboard and watches the text and image formats
func (p *Pasteboard) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	if err := xclip.Init(); err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	text := xclip.Watch(ctx, xclip.FmtText)
	img := xclip.Watch(ctx, xclip.FmtImage)
	go p.run(ctx, text, img)
	return nil
}

// Stop stops watching
func (p *Pasteboard) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.cancel()
}

func (p *Pasteboard) run(ctx context.Context, text, img <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-text:
			if !ok {
				return
			}
		case _, ok := <-img:
			if !ok {
				return
			}
		}

		p.mu.Lock()
		handler := p.onChange
		p.mu.Unlock()
		if handler != nil {
			handler()
		}
	}
}
