// Package storage implements the register file format: a fixed preamble,
// a JSON header describing the record, and the raw payload.
//
//	"YCLP" | version uint32 BE | header length uint32 BE | header JSON | payload
package storage

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

const (
	// MagicBytes identifies a register file
	MagicBytes = "YCLP"

	// CurrentVersion is the current file format version
	CurrentVersion uint32 = 1

	// MaxHeaderSize limits header size
	MaxHeaderSize = 1 << 20

	// MaxPayloadSize limits payload size
	MaxPayloadSize = 100 << 20

	preambleSize = 12
)

var (
	ErrInvalidMagic     = errors.New("invalid magic bytes")
	ErrInvalidVersion   = errors.New("unsupported file format version")
	ErrHeaderTooLarge   = errors.New("header size exceeds maximum")
	ErrPayloadTooLarge  = errors.New("payload size exceeds maximum")
	ErrChecksumMismatch = errors.New("checksum verification failed")
	ErrInvalidHeader    = errors.New("invalid header format")
	ErrNilContent       = errors.New("content is nil")
)

// Encode serializes a register record
func Encode(content *clipboard.Content) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, content); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a register record and verifies its checksum
func Decode(data []byte) (*clipboard.Content, error) {
	if len(data) < preambleSize {
		return nil, ErrInvalidMagic
	}
	return Read(bytes.NewReader(data))
}

// Write streams a register record to w
func Write(w io.Writer, content *clipboard.Content) error {
	if content == nil {
		return ErrNilContent
	}
	if int64(len(content.Data)) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}

	header := *content
	header.Size = int64(len(content.Data))
	sum := sha256.Sum256(content.Data)
	header.Checksum = hex.EncodeToString(sum[:])

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if len(headerBytes) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(MagicBytes)
	binary.Write(bw, binary.BigEndian, CurrentVersion)
	binary.Write(bw, binary.BigEndian, uint32(len(headerBytes)))
	bw.Write(headerBytes)
	bw.Write(content.Data)
	return bw.Flush()
}

// Read parses one register record from r
func Read(r io.Reader) (*clipboard.Content, error) {
	var preamble [preambleSize]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidMagic
		}
		return nil, err
	}
	if string(preamble[:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}

	version := binary.BigEndian.Uint32(preamble[4:8])
	if version == 0 || version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	headerLen := binary.BigEndian.Uint32(preamble[8:12])
	if headerLen > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var content clipboard.Content
	if err := json.Unmarshal(headerBytes, &content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if err := validate(&content); err != nil {
		return nil, err
	}

	payload := make([]byte, content.Size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != content.Checksum {
		return nil, ErrChecksumMismatch
	}

	content.Data = payload
	return &content, nil
}

func validate(c *clipboard.Content) error {
	switch c.ContentType {
	case clipboard.ContentTypeText, clipboard.ContentTypeHTML, clipboard.ContentTypeImage:
	default:
		return fmt.Errorf("%w: content type %q", ErrInvalidHeader, c.ContentType)
	}
	if c.Size < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidHeader)
	}
	if c.Size > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	return nil
}
