package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"autoplay/pkg/sharedTypes"
)

// NewS3Client builds an S3 client from static credentials, the same way the
// frame downloads were configured from AWS_* variables.
func NewS3Client(region, accessKey, secretKey string) (s3iface.S3API, error) {
	if region == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("missing one or more required settings: AWS_DEFAULT_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY")
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

// ParseS3Ref splits s3://bucket/key.
func ParseS3Ref(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3 reference", ErrUnsupportedScheme, ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("source: malformed s3 reference %q", ref)
	}
	return bucket, key, nil
}

// S3Resolver downloads objects once into CacheDir and serves later
// resolutions from the cached file.
type S3Resolver struct {
	api      s3iface.S3API
	cacheDir string
	group    singleflight.Group
	log      zerolog.Logger
}

func NewS3Resolver(api s3iface.S3API, cacheDir string, log zerolog.Logger) *S3Resolver {
	return &S3Resolver{api: api, cacheDir: cacheDir, log: log}
}

func (r *S3Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	bucket, key, err := ParseS3Ref(ref)
	if err != nil {
		return "", err
	}
	root := filepath.Clean(r.cacheDir)
	local := filepath.Join(root, bucket, filepath.FromSlash(key))
	if !strings.HasPrefix(local, root+string(filepath.Separator)) {
		return "", fmt.Errorf("source: key %q escapes cache dir", key)
	}
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local, nil
	}

	v, err, shared := r.group.Do(local, func() (any, error) {
		return local, r.download(ctx, bucket, key, local)
	})
	if err != nil {
		return "", err
	}
	if shared {
		r.log.Debug().Str("key", key).Msg("resolve: joined in-flight download")
	}
	return v.(string), nil
}

func (r *S3Resolver) download(ctx context.Context, bucket, key, local string) error {
	if err := os.MkdirAll(filepath.Dir(local), os.ModePerm); err != nil {
		return err
	}
	result, err := r.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
		}
		return fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(local), ".part-*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, result.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", local, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	r.log.Info().Str("key", key).Str("path", local).Msg("resolve: downloaded")
	return nil
}

// ListS3Feed lists every non-directory key under prefix as a feed item.
func ListS3Feed(ctx context.Context, api s3iface.S3API, bucket, prefix string) (sharedTypes.Feed, error) {
	feed := sharedTypes.Feed{Title: prefix, Bucket: bucket, Folder: prefix}
	err := api.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if obj.Key == nil || strings.HasSuffix(*obj.Key, "/") {
				continue // skip empty keys or "directories"
			}
			key := *obj.Key
			feed.Items = append(feed.Items, sharedTypes.FeedItem{
				Id:     sharedTypes.ItemID(key),
				Title:  path.Base(key),
				Source: "s3://" + bucket + "/" + key,
			})
		}
		return !lastPage
	})
	if err != nil {
		return sharedTypes.Feed{}, err
	}
	return feed, nil
}
