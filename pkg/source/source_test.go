package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string]string
	gets    atomic.Int32
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.gets.Add(1)
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	page := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		bucket, key, _ := strings.Cut(k, "/")
		if bucket == *in.Bucket && strings.HasPrefix(key, *in.Prefix) {
			page.Contents = append(page.Contents, &s3.Object{Key: aws.String(key)})
		}
	}
	page.Contents = append(page.Contents, &s3.Object{Key: aws.String(*in.Prefix + "/")})
	fn(page, true)
	return nil
}

func TestLocalResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o644))

	r := LocalResolver{Root: dir}
	got, err := r.Resolve(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), got)

	got, err = r.Resolve(context.Background(), "file://"+filepath.Join(dir, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), got)

	_, err = r.Resolve(context.Background(), "missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve(context.Background(), ".")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMux(t *testing.T) {
	m := Mux{
		"":   ResolverFunc(func(context.Context, string) (string, error) { return "plain", nil }),
		"s3": ResolverFunc(func(context.Context, string) (string, error) { return "bucket", nil }),
	}
	got, err := m.Resolve(context.Background(), "videos/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	got, err = m.Resolve(context.Background(), "s3://b/k.mp4")
	require.NoError(t, err)
	assert.Equal(t, "bucket", got)

	_, err = m.Resolve(context.Background(), "http://host/a.mp4")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := ParseS3Ref("s3://flow/feed/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "flow", bucket)
	assert.Equal(t, "feed/a.mp4", key)

	for _, bad := range []string{"flow/a.mp4", "s3://flow", "s3:///a.mp4", "s3://flow/dir/"} {
		_, _, err := ParseS3Ref(bad)
		assert.Error(t, err, bad)
	}
}

func TestS3ResolverCachesDownloads(t *testing.T) {
	api := &fakeS3{objects: map[string]string{"flow/feed/a.mp4": "video-bytes"}}
	r := NewS3Resolver(api, t.TempDir(), zerolog.Nop())

	var wg sync.WaitGroup
	paths := make([]string, 4)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := r.Resolve(context.Background(), "s3://flow/feed/a.mp4")
			assert.NoError(t, err)
			paths[i] = p
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
	for _, p := range paths {
		assert.Equal(t, paths[0], p)
	}

	before := api.gets.Load()
	_, err = r.Resolve(context.Background(), "s3://flow/feed/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, before, api.gets.Load(), "cached file must not be downloaded again")
}

func TestS3ResolverMissingKey(t *testing.T) {
	r := NewS3Resolver(&fakeS3{objects: map[string]string{}}, t.TempDir(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), "s3://flow/nope.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3ResolverRejectsEscapingKeys(t *testing.T) {
	r := NewS3Resolver(&fakeS3{}, t.TempDir(), zerolog.Nop())
	_, err := r.Resolve(context.Background(), "s3://flow/../../etc/passwd")
	assert.Error(t, err)
}

func TestListS3Feed(t *testing.T) {
	api := &fakeS3{objects: map[string]string{
		"flow/feed/a.mp4":  "a",
		"flow/other/b.mp4": "b",
	}}
	feed, err := ListS3Feed(context.Background(), api, "flow", "feed")
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "s3://flow/feed/a.mp4", feed.Items[0].Source)
	assert.Equal(t, "a.mp4", feed.Items[0].Title)
}

func TestListLocalFeed(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.MPG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755))

	feed, err := ListLocalFeed(dir)
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "a.MPG", string(feed.Items[0].Id))
	assert.Equal(t, "b", feed.Items[1].Title)
}
