package register

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmorass/clipstack/internal/backend"
	"github.com/mindmorass/clipstack/internal/clipboard"
)

func newLocalSource(t *testing.T) (*Source, *backend.Local) {
	t.Helper()
	b, err := backend.NewLocal(t.TempDir())
	require.NoError(t, err)
	return New(b, 5*time.Millisecond), b
}

func TestSource_EmptyRegister(t *testing.T) {
	s, _ := newLocalSource(t)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestSource_StartFailsWithoutLocation(t *testing.T) {
	b, err := backend.NewLocal("")
	require.NoError(t, err)

	err = New(b, 0).Start(context.Background())
	assert.ErrorIs(t, err, backend.ErrNotConfigured)
}

func TestSource_SignalsExternalWrites(t *testing.T) {
	s, b := newLocalSource(t)
	ctx := context.Background()

	var fired atomic.Int32
	s.OnChange(func() { fired.Add(1) })
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	// Another machine writes the shared register
	require.NoError(t, b.Write(ctx, clipboard.NewContent(clipboard.TextSnapshot("from elsewhere"))))
	require.Eventually(t, func() bool { return fired.Load() >= 1 }, time.Second, time.Millisecond)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from elsewhere", snap.Text)
}

func TestSource_OwnWriteIsNotSignalled(t *testing.T) {
	s, _ := newLocalSource(t)
	ctx := context.Background()

	var fired atomic.Int32
	s.OnChange(func() { fired.Add(1) })
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	require.NoError(t, s.Write(ctx, clipboard.Snapshot{HasHTML: true, HTML: "<b>mine</b>"}))
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, fired.Load())

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<b>mine</b>", snap.HTML)
}

func TestSource_WriteEmpty(t *testing.T) {
	s, _ := newLocalSource(t)
	err := s.Write(context.Background(), clipboard.Snapshot{})
	assert.ErrorIs(t, err, clipboard.ErrUnsupportedFormat)
}

func TestSource_Location(t *testing.T) {
	s, b := newLocalSource(t)
	assert.Equal(t, "local "+b.Location(), s.Location())
}
