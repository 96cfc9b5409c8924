// Package backend keeps the shared register record: a single "current
// content" file in a local directory, an S3 object, or a Dropbox file.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

// Type identifies a register backend
type Type string

const (
	TypeLocal   Type = "local"
	TypeS3      Type = "s3"
	TypeDropbox Type = "dropbox"
)

// Common errors
var (
	ErrNotConfigured    = errors.New("backend not configured")
	ErrNotFound         = errors.New("register is empty")
	ErrLocked           = errors.New("register is locked by another process")
	ErrConflict         = errors.New("write conflict detected")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Backend stores one register record
type Backend interface {
	// Init validates the configuration and prepares the location
	Init(ctx context.Context) error

	// Read returns the current record, or ErrNotFound when nothing was written yet
	Read(ctx context.Context) (*clipboard.Content, error)

	// Write replaces the current record
	Write(ctx context.Context, content *clipboard.Content) error

	// ModTime returns when the record last changed, or ErrNotFound
	ModTime(ctx context.Context) (time.Time, error)

	// Location returns a human-readable location string
	Location() string

	Type() Type

	// Close releases any resources held by the backend
	Close() error
}

// ParseType maps a configured name to a backend type. Empty means local.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case "":
		return TypeLocal, nil
	case TypeLocal, TypeS3, TypeDropbox:
		return t, nil
	default:
		return "", fmt.Errorf("unknown backend type: %s", name)
	}
}

// Config holds configuration for creating backends
type Config struct {
	Type     Type
	Location string // local: directory path; s3: s3://bucket/prefix

	S3Bucket string
	S3Prefix string
	S3Region string

	DropboxAppKey    string
	DropboxAppSecret string
}
