// Package storage provides read access to parquet datasets kept on the local
// filesystem, in Amazon S3, Google Cloud Storage or Azure Blob Storage.
//
// All backends expose the same directory-like view of a bucket: keys use "/"
// as separator and ListPrefixes returns the "subdirectories" of a prefix the
// way S3 reports common prefixes for a delimited listing.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ErrUnsupportedScheme is returned for locations with an unknown URI scheme.
var ErrUnsupportedScheme = errors.New("unsupported location scheme")

// Bucket is a container of objects that can be listed one level at a time
// and whose objects can be opened for random access.
type Bucket interface {
	// ListPrefixes returns the common prefixes directly below prefix.
	ListPrefixes(ctx context.Context, prefix string) ([]string, error)
	// ListObjects returns the keys of the objects directly below the
	// directory of prefix whose names start with prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
	// Open opens the object stored under key.
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
	// URI returns the location of key in URI form.
	URI(key string) string
	// Close releases the clients held by the bucket. URI keeps working
	// after Close.
	Close() error
}

// Location is a parsed dataset location.
type Location struct {
	Scheme string
	// Account is the Azure storage account, if the URI names one.
	Account string
	// Bucket is the S3 or GCS bucket, the Azure container or, for local
	// paths, the directory the keys are relative to.
	Bucket string
	Key    string
	// Object is set when the location denotes a single parquet file rather
	// than a dataset directory.
	Object bool
}

// Supported location schemes.
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeAzure = "az"
)

// ParseLocation parses a dataset location. Accepted forms are
//
//	s3://bucket/prefix/
//	gs://bucket/prefix/
//	az://container/prefix/
//	abfss://container@account.dfs.core.windows.net/prefix/
//	https://account.blob.core.windows.net/container/prefix/
//	file:///local/path
//	/local/path, ./relative/path
//
// A location is a single object if it ends with ".parquet" or, for local
// paths, if it is a regular file.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, errors.New("empty location")
	}

	if !strings.Contains(raw, "://") {
		return parseLocalLocation(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}

	var loc Location
	switch strings.ToLower(u.Scheme) {
	case "file":
		return parseLocalLocation(u.Path)
	case "s3", "s3a", "s3n":
		loc = Location{Scheme: SchemeS3, Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}
	case "gs", "gcs":
		loc = Location{Scheme: SchemeGCS, Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}
	case "az":
		loc = Location{Scheme: SchemeAzure, Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}
	case "abfss":
		if u.User == nil {
			return Location{}, fmt.Errorf("abfss location %q is missing the container@account component", raw)
		}
		loc = Location{
			Scheme:  SchemeAzure,
			Account: strings.SplitN(u.Host, ".", 2)[0],
			Bucket:  u.User.Username(),
			Key:     strings.TrimPrefix(u.Path, "/"),
		}
	case "https":
		if !strings.HasSuffix(u.Host, ".blob.core.windows.net") {
			return Location{}, fmt.Errorf("%w: https host %q is not an Azure blob endpoint", ErrUnsupportedScheme, u.Host)
		}
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		loc = Location{Scheme: SchemeAzure, Account: strings.SplitN(u.Host, ".", 2)[0], Bucket: parts[0]}
		if len(parts) > 1 {
			loc.Key = parts[1]
		}
	default:
		return Location{}, fmt.Errorf("%w %q in %q", ErrUnsupportedScheme, u.Scheme, raw)
	}

	if loc.Bucket == "" {
		return Location{}, fmt.Errorf("location %q has no bucket", raw)
	}
	loc.Object = strings.HasSuffix(strings.ToLower(loc.Key), ".parquet")
	return loc, nil
}

func parseLocalLocation(p string) (Location, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Location{}, fmt.Errorf("resolve path %q: %w", p, err)
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return Location{}, err
	}

	if fi.Mode().IsRegular() {
		return Location{Scheme: SchemeFile, Bucket: filepath.Dir(abs), Key: filepath.Base(abs), Object: true}, nil
	}
	return Location{Scheme: SchemeFile, Bucket: abs}, nil
}

// Dir returns the directory prefix of the location: the key itself for
// dataset locations, the key's parent for single objects.
func (l Location) Dir() string {
	key := l.Key
	if l.Object {
		key = path.Dir(key)
		if key == "." {
			key = ""
		}
	}
	if key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return key
}

// URI returns the location of key within the location's bucket.
func (l Location) URI(key string) string {
	switch l.Scheme {
	case SchemeFile:
		return filepath.Join(l.Bucket, filepath.FromSlash(key))
	case SchemeAzure:
		if l.Account != "" {
			return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", l.Account, l.Bucket, key)
		}
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, key)
}

func (l Location) String() string {
	return l.URI(l.Key)
}

// Config holds the settings needed to reach the supported backends.
type Config struct {
	// Prefetch is the number of bytes fetched from the end of a remote
	// object when it is opened and the minimum size of every further
	// ranged read.
	Prefetch int64

	// AWS is the SDK configuration used for S3.
	AWS aws.Config
	// S3Endpoint overrides the S3 endpoint, for S3 compatible stores.
	S3Endpoint string
	// S3PathStyle enables path-style addressing.
	S3PathStyle bool

	// GCSCredentialsFile is a service account key file. Application
	// default credentials are used when empty.
	GCSCredentialsFile string

	AzureAccountName      string
	AzureAccountKey       string
	AzureConnectionString string
}

// NewBucket returns the bucket that holds loc.
func NewBucket(ctx context.Context, loc Location, cfg Config) (Bucket, error) {
	switch loc.Scheme {
	case SchemeFile:
		return NewLocalBucket(loc.Bucket)
	case SchemeS3:
		return NewS3Bucket(newS3Client(cfg), loc.Bucket, cfg.Prefetch), nil
	case SchemeGCS:
		return NewGCSBucket(ctx, loc.Bucket, cfg.GCSCredentialsFile, cfg.Prefetch)
	case SchemeAzure:
		account := loc.Account
		if account == "" {
			account = cfg.AzureAccountName
		}
		return NewAzureBucket(loc.Bucket, AzureCredentials{
			AccountName:      account,
			AccountKey:       cfg.AzureAccountKey,
			ConnectionString: cfg.AzureConnectionString,
		}, cfg.Prefetch)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, loc.Scheme)
	}
}
