package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBucket is a directory on the local filesystem.
type LocalBucket struct {
	root string
}

// NewLocalBucket returns a bucket rooted at dir.
func NewLocalBucket(dir string) (*LocalBucket, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", dir, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	return &LocalBucket{root: abs}, nil
}

func (b *LocalBucket) readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(filepath.Join(b.root, filepath.FromSlash(dir)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return entries, err
}

// ListPrefixes returns the subdirectories of prefix.
func (b *LocalBucket) ListPrefixes(_ context.Context, prefix string) ([]string, error) {
	dir, name := path.Split(prefix)
	entries, err := b.readDir(dir)
	if err != nil {
		return nil, err
	}

	var prefixes []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), name) {
			prefixes = append(prefixes, dir+e.Name()+"/")
		}
	}
	sort.Strings(prefixes)
	return prefixes, nil
}

// ListObjects returns the regular files in the directory of prefix whose
// names start with the last element of prefix.
func (b *LocalBucket) ListObjects(_ context.Context, prefix string) ([]string, error) {
	dir, name := path.Split(prefix)
	entries, err := b.readDir(dir)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), name) {
			keys = append(keys, dir+e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Open opens the file stored under key.
func (b *LocalBucket) Open(_ context.Context, key string) (io.ReadSeekCloser, error) {
	fl, err := os.Open(filepath.Join(b.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("can not open the file: %w", err)
	}
	return fl, nil
}

// URI returns the filesystem path of key.
func (b *LocalBucket) URI(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// Close is a no-op; the LocalBucket holds no resources of its own.
func (b *LocalBucket) Close() error {
	return nil
}
