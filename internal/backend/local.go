package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mindmorass/clipstack/internal/clipboard"
	"github.com/mindmorass/clipstack/internal/storage"
)

const (
	// DirName is the directory created inside the configured location
	DirName = ".clipstack"

	// CurrentFile holds the current register record
	CurrentFile = "current.clip"

	// LockFile guards writers of CurrentFile
	LockFile = "current.clip.lock"

	// LockTimeout is how long a lock is honored
	LockTimeout = 10 * time.Second

	filePermissions = 0600
	dirPermissions  = 0700
)

// lockInfo is the content of the lock file
type lockInfo struct {
	Holder     string    `json:"holder"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (l lockInfo) expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

func (l lockInfo) ownedBy(holder string, pid int) bool {
	return l.Holder == holder && l.PID == pid
}

// Local keeps the register in a directory, typically one shared through a
// synced folder or network mount
type Local struct {
	basePath string
	hostname string
	pid      int
}

// NewLocal creates a local backend rooted at basePath, which must be absolute
func NewLocal(basePath string) (*Local, error) {
	b := &Local{pid: os.Getpid()}
	b.hostname, _ = os.Hostname()

	if basePath == "" {
		return b, nil
	}

	clean := filepath.Clean(basePath)
	if !filepath.IsAbs(clean) {
		return nil, fmt.Errorf("path must be absolute: %s", basePath)
	}
	b.basePath = clean
	return b, nil
}

// Type returns TypeLocal
func (b *Local) Type() Type {
	return TypeLocal
}

// Location returns the base path
func (b *Local) Location() string {
	return b.basePath
}

func (b *Local) dir() string {
	return filepath.Join(b.basePath, DirName)
}

func (b *Local) clipPath() string {
	return filepath.Join(b.dir(), CurrentFile)
}

func (b *Local) lockPath() string {
	return filepath.Join(b.dir(), LockFile)
}

// Init creates the register directory and removes a stale lock
func (b *Local) Init(ctx context.Context) error {
	if b.basePath == "" {
		return ErrNotConfigured
	}
	if _, err := os.Stat(b.basePath); err != nil {
		return fmt.Errorf("location unavailable: %w", err)
	}
	if err := os.MkdirAll(b.dir(), dirPermissions); err != nil {
		return fmt.Errorf("create register directory: %w", err)
	}

	if info, err := b.readLock(); err == nil && info.expired(time.Now()) {
		os.Remove(b.lockPath())
	}
	return nil
}

// Close is a no-op
func (b *Local) Close() error {
	return nil
}

// Write replaces the register file atomically
func (b *Local) Write(ctx context.Context, content *clipboard.Content) error {
	if b.basePath == "" {
		return ErrNotConfigured
	}

	if err := os.MkdirAll(b.dir(), dirPermissions); err != nil {
		return fmt.Errorf("create register directory: %w", err)
	}

	release, err := b.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	tmp, err := os.CreateTemp(b.dir(), CurrentFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := storage.Write(tmp, content); err != nil {
		tmp.Close()
		return fmt.Errorf("encode register: %w", err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), b.clipPath()); err != nil {
		return fmt.Errorf("replace register: %w", err)
	}
	return nil
}

// Read decodes the register file
func (b *Local) Read(ctx context.Context) (*clipboard.Content, error) {
	if b.basePath == "" {
		return nil, ErrNotConfigured
	}

	f, err := os.Open(b.clipPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open register: %w", err)
	}
	defer f.Close()

	content, err := storage.Read(f)
	if err != nil {
		return nil, fmt.Errorf("decode register: %w", err)
	}
	return content, nil
}

// ModTime returns the register file modification time
func (b *Local) ModTime(ctx context.Context) (time.Time, error) {
	if b.basePath == "" {
		return time.Time{}, ErrNotConfigured
	}

	info, err := os.Stat(b.clipPath())
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (b *Local) readLock() (lockInfo, error) {
	var info lockInfo
	data, err := os.ReadFile(b.lockPath())
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

// acquireLock creates the lock file exclusively. An expired, corrupt or
// self-owned lock is taken over.
func (b *Local) acquireLock() (release func(), err error) {
	now := time.Now()
	data, err := json.Marshal(lockInfo{
		Holder:     b.hostname,
		PID:        b.pid,
		AcquiredAt: now,
		ExpiresAt:  now.Add(LockTimeout),
	})
	if err != nil {
		return nil, err
	}

	release = func() { os.Remove(b.lockPath()) }

	err = b.createLock(data)
	if err == nil {
		return release, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, err
	}

	existing, readErr := b.readLock()
	switch {
	case readErr == nil && existing.ownedBy(b.hostname, b.pid):
		if err := os.WriteFile(b.lockPath(), data, filePermissions); err != nil {
			return nil, err
		}
		return release, nil
	case readErr == nil && !existing.expired(now):
		return nil, ErrLocked
	}

	os.Remove(b.lockPath())
	if err := b.createLock(data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrLocked
		}
		return nil, err
	}
	return release, nil
}

func (b *Local) createLock(data []byte) error {
	f, err := os.OpenFile(b.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermissions)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}
