package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client used by S3Bucket.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ Bucket = (*S3Bucket)(nil)

// S3Bucket is an S3 bucket or a bucket of an S3 compatible store.
type S3Bucket struct {
	client   S3API
	bucket   string
	prefetch int64
}

// NewS3Bucket returns a bucket backed by client.
func NewS3Bucket(client S3API, bucket string, prefetch int64) *S3Bucket {
	return &S3Bucket{client: client, bucket: bucket, prefetch: prefetch}
}

func newS3Client(cfg Config) *s3.Client {
	return s3.NewFromConfig(cfg.AWS, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3PathStyle
	})
}

func (b *S3Bucket) list(ctx context.Context, prefix string, fn func(*s3.ListObjectsV2Output)) error {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list s3://%s/%s: %w", b.bucket, prefix, err)
		}
		fn(page)
	}
	return nil
}

// ListPrefixes returns the common prefixes directly below prefix.
func (b *S3Bucket) ListPrefixes(ctx context.Context, prefix string) ([]string, error) {
	var prefixes []string
	err := b.list(ctx, prefix, func(page *s3.ListObjectsV2Output) {
		for _, cp := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(cp.Prefix))
		}
	})
	return prefixes, err
}

// ListObjects returns the keys of the objects directly below prefix.
func (b *S3Bucket) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.list(ctx, prefix, func(page *s3.ListObjectsV2Output) {
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	})
	return keys, err
}

// Open returns a reader over the object stored under key that fetches its
// content with ranged GET requests.
func (b *S3Bucket) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", b.URI(key), err)
	}

	return newRangeReader(ctx, aws.ToInt64(head.ContentLength), b.prefetch, func(ctx context.Context, off, n int64) ([]byte, error) {
		out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+n-1)),
		})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", b.URI(key), err)
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	})
}

// URI returns the s3:// URI of key.
func (b *S3Bucket) URI(key string) string {
	return fmt.Sprintf("s3://%s/%s", b.bucket, key)
}

// Close is a no-op; the S3Bucket holds no resources of its own.
func (b *S3Bucket) Close() error {
	return nil
}
