package storage

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

func sampleContent(t *testing.T) *clipboard.Content {
	t.Helper()
	content := clipboard.NewContent(clipboard.Snapshot{HasHTML: true, HTML: "<b>bold</b>"})
	require.NotNil(t, content)
	content.Timestamp = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	content.SourceMachine = "laptop"
	content.SourceUser = "alice"
	return content
}

func TestEncodeDecode(t *testing.T) {
	content := sampleContent(t)

	data, err := Encode(content)
	require.NoError(t, err)
	assert.Equal(t, MagicBytes, string(data[:4]))
	assert.Equal(t, CurrentVersion, binary.BigEndian.Uint32(data[4:8]))

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, content.ID, decoded.ID)
	assert.True(t, content.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, "laptop", decoded.SourceMachine)
	assert.Equal(t, clipboard.ContentTypeHTML, decoded.ContentType)
	assert.Equal(t, content.Checksum, decoded.Checksum)
	assert.Equal(t, content.Data, decoded.Data)
	assert.Equal(t, clipboard.Snapshot{HasHTML: true, HTML: "<b>bold</b>"}, decoded.Snapshot())
}

func TestEncodeDecode_ImageDimensions(t *testing.T) {
	content := clipboard.NewContent(clipboard.Snapshot{HasImage: true, Image: []byte("not really png"), Width: 640, Height: 480})
	require.NotNil(t, content)

	data, err := Encode(content)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"width":640`)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 640, decoded.Width)
	assert.Equal(t, 480, decoded.Height)
}

func TestEncode_Nil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrNilContent)
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Encode(sampleContent(t))
	require.NoError(t, err)

	corrupt := func(fn func([]byte)) []byte {
		data := bytes.Clone(valid)
		fn(data)
		return data
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", []byte("YCL"), ErrInvalidMagic},
		{"magic", corrupt(func(b []byte) { copy(b, "NOPE") }), ErrInvalidMagic},
		{"future version", corrupt(func(b []byte) { binary.BigEndian.PutUint32(b[4:8], 9) }), ErrInvalidVersion},
		{"zero version", corrupt(func(b []byte) { binary.BigEndian.PutUint32(b[4:8], 0) }), ErrInvalidVersion},
		{"huge header", corrupt(func(b []byte) { binary.BigEndian.PutUint32(b[8:12], MaxHeaderSize+1) }), ErrHeaderTooLarge},
		{"payload flipped", corrupt(func(b []byte) { b[len(b)-1] ^= 0xff }), ErrChecksumMismatch},
		{"header garbage", corrupt(func(b []byte) { b[12] = '!' }), ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_TruncatedPayload(t *testing.T) {
	data, err := Encode(sampleContent(t))
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-3])
	assert.Error(t, err)
}

func TestDecode_UnknownContentType(t *testing.T) {
	content := sampleContent(t)
	content.ContentType = "video"

	data, err := Encode(content)
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadWrite_Stream(t *testing.T) {
	var buf bytes.Buffer
	first := clipboard.NewContent(clipboard.TextSnapshot("one"))
	second := clipboard.NewContent(clipboard.TextSnapshot("two"))
	require.NoError(t, Write(&buf, first))
	require.NoError(t, Write(&buf, second))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got.Data))

	got, err = Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got.Data))
}
