package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ Bucket = (*GCSBucket)(nil)

// GCSBucket is a Google Cloud Storage bucket.
type GCSBucket struct {
	client   *gcs.Client
	bucket   string
	prefetch int64
}

// NewGCSBucket creates a client for bucket. credentialsFile is a service
// account key file; application default credentials are used when it is empty.
func NewGCSBucket(ctx context.Context, bucket, credentialsFile string, prefetch int64) (*GCSBucket, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &GCSBucket{client: client, bucket: bucket, prefetch: prefetch}, nil
}

func (b *GCSBucket) list(ctx context.Context, prefix string, fn func(*gcs.ObjectAttrs)) error {
	it := b.client.Bucket(b.bucket).Objects(ctx, &gcs.Query{Prefix: prefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list gs://%s/%s: %w", b.bucket, prefix, err)
		}
		fn(attrs)
	}
}

// ListPrefixes returns the common prefixes directly below prefix.
func (b *GCSBucket) ListPrefixes(ctx context.Context, prefix string) ([]string, error) {
	var prefixes []string
	err := b.list(ctx, prefix, func(attrs *gcs.ObjectAttrs) {
		if attrs.Prefix != "" {
			prefixes = append(prefixes, attrs.Prefix)
		}
	})
	return prefixes, err
}

// ListObjects returns the names of the objects directly below prefix.
func (b *GCSBucket) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.list(ctx, prefix, func(attrs *gcs.ObjectAttrs) {
		if attrs.Prefix == "" {
			keys = append(keys, attrs.Name)
		}
	})
	return keys, err
}

// Open returns a reader over the object stored under key that fetches its
// content with ranged reads.
func (b *GCSBucket) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	obj := b.client.Bucket(b.bucket).Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", b.URI(key), err)
	}

	return newRangeReader(ctx, attrs.Size, b.prefetch, func(ctx context.Context, off, n int64) ([]byte, error) {
		r, err := obj.NewRangeReader(ctx, off, n)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", b.URI(key), err)
		}
		defer r.Close()
		return io.ReadAll(r)
	})
}

// Close closes the GCS client.
func (b *GCSBucket) Close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// URI returns the gs:// URI of key.
func (b *GCSBucket) URI(key string) string {
	return fmt.Sprintf("gs://%s/%s", b.bucket, key)
}
