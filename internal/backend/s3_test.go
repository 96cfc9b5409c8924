package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmorass/clipstack/internal/clipboard"
)

type fakeS3 struct {
	bucketErr error
	objects   map[string][]byte
	modified  time.Time
	keys      []string
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.bucketErr
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{LastModified: aws.Time(f.modified)}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.keys = append(f.keys, key)
	f.modified = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &s3.PutObjectOutput{}, nil
}

func TestParseS3Location(t *testing.T) {
	tests := []struct {
		in, bucket, prefix string
		wantErr            bool
	}{
		{in: "s3://team-bucket/clip/", bucket: "team-bucket", prefix: "clip"},
		{in: "team-bucket", bucket: "team-bucket"},
		{in: "s3://b/a/b/c", bucket: "b", prefix: "a/b/c"},
		{in: "s3://", wantErr: true},
		{in: "/only-prefix", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, prefix, err := ParseS3Location(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestS3_Location(t *testing.T) {
	assert.Equal(t, "s3://b/p", NewS3("b", "/p/", "").Location())
	assert.Equal(t, "s3://b", NewS3("b", "", "").Location())
	assert.Equal(t, "", NewS3("", "", "").Location())
	assert.Equal(t, "p/.clipstack/current.clip", NewS3("b", "p", "").objectKey())
}

func TestS3_NotConfigured(t *testing.T) {
	b := NewS3("", "", "")
	assert.ErrorIs(t, b.Init(context.Background()), ErrNotConfigured)

	_, err := NewS3("b", "", "").Read(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestS3_InitChecksBucket(t *testing.T) {
	b := NewS3("b", "", "")
	denied := errors.New("access denied")
	b.client = &fakeS3{bucketErr: denied}

	assert.ErrorIs(t, b.Init(context.Background()), denied)
}

func TestS3_ReadWrite(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	b := NewS3("b", "team", "us-east-1")
	b.client = fake
	ctx := context.Background()
	require.NoError(t, b.Init(ctx))

	_, err := b.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.ModTime(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	content := clipboard.NewContent(clipboard.TextSnapshot("from s3"))
	require.NoError(t, b.Write(ctx, content))
	assert.Equal(t, []string{"team/.clipstack/current.clip"}, fake.keys)

	got, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from s3", got.Snapshot().Text)

	modTime, err := b.ModTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, fake.modified, modTime)
}

func TestS3_CorruptObject(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{S3ObjectKey: []byte("garbage")}}
	b := NewS3("b", "", "")
	b.client = fake

	_, err := b.Read(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
