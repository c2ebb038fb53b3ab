package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultPrefetch is the default number of bytes read from the end of an
// object when it is opened. Most parquet footers fit into it, so reading a
// schema usually costs a single ranged request.
const DefaultPrefetch = 64 << 10

const minBlockSize = 4 << 10

// rangeFetcher reads n bytes starting at off.
type rangeFetcher func(ctx context.Context, off, n int64) ([]byte, error)

// rangeReader is an io.ReadSeekCloser over a remote object that is read with
// ranged requests. The prefetched tail of the object stays in memory for the
// lifetime of the reader; of all other blocks only the most recent one is kept.
type rangeReader struct {
	ctx       context.Context
	fetch     rangeFetcher
	size      int64
	pos       int64
	blockSize int64

	tail    []byte
	tailOff int64

	buf    []byte
	bufOff int64
}

func newRangeReader(ctx context.Context, size, prefetch int64, fetch rangeFetcher) (*rangeReader, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid object size %d", size)
	}
	if prefetch <= 0 {
		prefetch = DefaultPrefetch
	}

	r := &rangeReader{
		ctx:       ctx,
		fetch:     fetch,
		size:      size,
		blockSize: prefetch,
	}
	if r.blockSize < minBlockSize {
		r.blockSize = minBlockSize
	}

	if size > 0 {
		off := size - prefetch
		if off < 0 {
			off = 0
		}
		tail, err := r.load(off, size-off)
		if err != nil {
			return nil, err
		}
		r.tail, r.tailOff = tail, off
	}
	return r, nil
}

func (r *rangeReader) load(off, n int64) ([]byte, error) {
	data, err := r.fetch(r.ctx, off, n)
	if err != nil {
		return nil, fmt.Errorf("reading bytes %d-%d failed: %w", off, off+n-1, err)
	}
	if int64(len(data)) != n {
		return nil, fmt.Errorf("reading bytes %d-%d: got %d bytes: %w", off, off+n-1, len(data), io.ErrUnexpectedEOF)
	}
	return data, nil
}

func within(pos, off int64, data []byte) bool {
	return pos >= off && pos < off+int64(len(data))
}

func (r *rangeReader) Read(p []byte) (int, error) {
	if r.pos >= r.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	if within(r.pos, r.tailOff, r.tail) {
		n := copy(p, r.tail[r.pos-r.tailOff:])
		r.pos += int64(n)
		return n, nil
	}

	if !within(r.pos, r.bufOff, r.buf) {
		n := int64(len(p))
		if n < r.blockSize {
			n = r.blockSize
		}
		// stop at the tail, it is already in memory
		end := r.size
		if r.tail != nil && r.pos < r.tailOff {
			end = r.tailOff
		}
		if r.pos+n > end {
			n = end - r.pos
		}
		data, err := r.load(r.pos, n)
		if err != nil {
			return 0, err
		}
		r.buf, r.bufOff = data, r.pos
	}

	n := copy(p, r.buf[r.pos-r.bufOff:])
	r.pos += int64(n)
	return n, nil
}

func (r *rangeReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.size + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}
	r.pos = abs
	return abs, nil
}

func (r *rangeReader) Close() error {
	r.buf, r.tail = nil, nil
	return nil
}
