package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

var _ Bucket = (*AzureBucket)(nil)

// AzureCredentials selects how to authenticate against a storage account.
// A connection string takes precedence over an account key; without either
// the container is accessed anonymously.
type AzureCredentials struct {
	AccountName      string
	AccountKey       string
	ConnectionString string
}

// AzureBucket is a container of an Azure storage account.
type AzureBucket struct {
	client    *azblob.Client
	container string
	account   string
	prefetch  int64
}

// NewAzureBucket creates a client for the container.
func NewAzureBucket(containerName string, creds AzureCredentials, prefetch int64) (*AzureBucket, error) {
	client, err := newAzureClient(creds)
	if err != nil {
		return nil, err
	}
	return &AzureBucket{client: client, container: containerName, account: creds.AccountName, prefetch: prefetch}, nil
}

func newAzureClient(creds AzureCredentials) (*azblob.Client, error) {
	if creds.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(creds.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure blob client: %w", err)
		}
		return client, nil
	}

	if creds.AccountName == "" {
		return nil, errors.New("Azure storage account name is required")
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", creds.AccountName)

	if creds.AccountKey == "" {
		client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create Azure blob client: %w", err)
		}
		return client, nil
	}

	sharedKeyCred, err := azblob.NewSharedKeyCredential(creds.AccountName, creds.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, sharedKeyCred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return client, nil
}

func (b *AzureBucket) list(ctx context.Context, prefix string, fn func(*container.BlobHierarchyListSegment)) error {
	pager := b.client.ServiceClient().NewContainerClient(b.container).NewListBlobsHierarchyPager("/", &container.ListBlobsHierarchyOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", b.URI(prefix), err)
		}
		if resp.Segment != nil {
			fn(resp.Segment)
		}
	}
	return nil
}

// ListPrefixes returns the virtual directories directly below prefix.
func (b *AzureBucket) ListPrefixes(ctx context.Context, prefix string) ([]string, error) {
	var prefixes []string
	err := b.list(ctx, prefix, func(seg *container.BlobHierarchyListSegment) {
		for _, p := range seg.BlobPrefixes {
			if p != nil && p.Name != nil {
				prefixes = append(prefixes, *p.Name)
			}
		}
	})
	return prefixes, err
}

// ListObjects returns the names of the blobs directly below prefix.
func (b *AzureBucket) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.list(ctx, prefix, func(seg *container.BlobHierarchyListSegment) {
		for _, item := range seg.BlobItems {
			if item != nil && item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	})
	return keys, err
}

// Open returns a reader over the blob stored under key that fetches its
// content with ranged downloads.
func (b *AzureBucket) Open(ctx context.Context, key string) (io.ReadSeekCloser, error) {
	props, err := b.client.ServiceClient().NewContainerClient(b.container).NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get properties of %s: %w", b.URI(key), err)
	}
	if props.ContentLength == nil {
		return nil, fmt.Errorf("%s has no content length", b.URI(key))
	}

	return newRangeReader(ctx, *props.ContentLength, b.prefetch, func(ctx context.Context, off, n int64) ([]byte, error) {
		resp, err := b.client.DownloadStream(ctx, b.container, key, &azblob.DownloadStreamOptions{
			Range: azblob.HTTPRange{Offset: off, Count: n},
		})
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", b.URI(key), err)
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	})
}

// URI returns the URI of key.
func (b *AzureBucket) URI(key string) string {
	if b.account != "" {
		return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", b.account, b.container, key)
	}
	return fmt.Sprintf("az://%s/%s", b.container, key)
}

// Close is a no-op; the AzureBucket holds no resources of its own.
func (b *AzureBucket) Close() error {
	return nil
}
