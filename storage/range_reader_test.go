package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	data  []byte
	calls int
	err   error
	short bool
}

func (f *countingFetcher) fetch(_ context.Context, off, n int64) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	end := off + n
	if f.short {
		end--
	}
	return append([]byte(nil), f.data[off:end]...), nil
}

func randomBytes(n int) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(42)).Read(data)
	return data
}

func TestRangeReaderReadAll(t *testing.T) {
	for _, size := range []int{0, 1, 100, minBlockSize, 3*minBlockSize + 17, 100 << 10} {
		data := randomBytes(size)
		f := &countingFetcher{data: data}

		r, err := newRangeReader(context.Background(), int64(size), minBlockSize, f.fetch)
		require.NoError(t, err)

		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, got), "size %d", size)
		require.NoError(t, r.Close())
	}
}

func TestRangeReaderFooterFromPrefetch(t *testing.T) {
	data := randomBytes(200 << 10)
	f := &countingFetcher{data: data}

	r, err := newRangeReader(context.Background(), int64(len(data)), DefaultPrefetch, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	// the way a parquet footer is read: length, then the meta data in front of it
	_, err = r.Seek(-8, io.SeekEnd)
	require.NoError(t, err)
	buf := make([]byte, 8)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data[len(data)-8:], buf)

	_, err = r.Seek(-8-1000, io.SeekEnd)
	require.NoError(t, err)
	buf = make([]byte, 1000)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data[len(data)-1008:len(data)-8], buf)
	assert.Equal(t, 1, f.calls)

	// the magic header costs one more request; the tail stays in memory
	_, err = r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf = make([]byte, 4)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data[:4], buf)
	assert.Equal(t, 2, f.calls)

	_, err = r.Seek(-4, io.SeekEnd)
	require.NoError(t, err)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data[len(data)-4:], buf)
	assert.Equal(t, 2, f.calls)
}

func TestRangeReaderSeek(t *testing.T) {
	data := randomBytes(10 << 10)
	r, err := newRangeReader(context.Background(), int64(len(data)), minBlockSize, (&countingFetcher{data: data}).fetch)
	require.NoError(t, err)

	pos, err := r.Seek(100, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pos)

	pos, err = r.Seek(50, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(150), pos)

	b := make([]byte, 1)
	_, err = io.ReadFull(r, b)
	require.NoError(t, err)
	assert.Equal(t, data[150], b[0])

	_, err = r.Seek(-1, io.SeekStart)
	require.Error(t, err)

	_, err = r.Seek(0, 42)
	require.Error(t, err)

	_, err = r.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	n, err := r.Read(b)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestRangeReaderErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := newRangeReader(context.Background(), 100, 0, (&countingFetcher{err: boom}).fetch)
	require.ErrorIs(t, err, boom)

	data := randomBytes(100)
	_, err = newRangeReader(context.Background(), 100, 0, (&countingFetcher{data: data, short: true}).fetch)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = newRangeReader(context.Background(), -1, 0, (&countingFetcher{}).fetch)
	require.Error(t, err)
}
