package s2pmtiles

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// FileRangeReader implements RangeReader over a single file on disk.
type FileRangeReader struct {
	path string
}

// NewFileRangeReader returns a reader for path. The file is not opened
// here; each ReadRange call opens it, reads, and closes it again.
func NewFileRangeReader(path string) *FileRangeReader {
	return &FileRangeReader{path: path}
}

// ReadRange implements RangeReader.
func (f *FileRangeReader) ReadRange(offset, length uint64) ([]byte, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, newIOError(err)
	}
	defer file.Close()

	buf := make([]byte, length)
	n, err := file.ReadAt(buf, int64(offset))
	if err != nil && n == 0 {
		return nil, newIOError(err)
	}
	return buf[:n], nil
}

// FileSink implements Sink over a single file on disk, created if absent.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink opens (creating if absent) path for read-write access.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, newIOError(err)
	}
	f.Close()
	return &FileSink{path: path}, nil
}

// WriteAt implements Sink.
func (s *FileSink) WriteAt(data []byte, offset uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return newIOError(err)
	}
	defer f.Close()
	if _, err := f.WriteAt(data, int64(offset)); err != nil {
		return newIOError(err)
	}
	return nil
}

// Append implements Sink.
func (s *FileSink) Append(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return newIOError(err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return newIOError(err)
	}
	return nil
}

// MemSink is an in-memory Sink/RangeReader pair, useful for tests and for
// building an archive entirely in memory before uploading it.
type MemSink struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemSink returns an empty in-memory sink.
func NewMemSink() *MemSink {
	return &MemSink{}
}

// WriteAt implements Sink.
func (m *MemSink) WriteAt(data []byte, offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	end := offset + uint64(len(data))
	if end > uint64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[offset:end], data)
	return nil
}

// Append implements Sink.
func (m *MemSink) Append(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data, data...)
	return nil
}

// ReadRange implements RangeReader, letting a MemSink double as the
// reader for an archive it just wrote, without a round trip through
// disk or a network bucket.
func (m *MemSink) ReadRange(offset, length uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if offset >= uint64(len(m.data)) {
		return nil, nil
	}
	end := offset + length
	if end > uint64(len(m.data)) {
		end = uint64(len(m.data))
	}
	out := make([]byte, end-offset)
	copy(out, m.data[offset:end])
	return out, nil
}

// Bytes returns a copy of the sink's full contents.
func (m *MemSink) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// HTTPRangeReader implements RangeReader against an HTTP server that
// honors byte-range requests (RFC 7233), such as a PMTiles archive
// served straight out of object storage.
type HTTPRangeReader struct {
	url    string
	client *http.Client
}

// NewHTTPRangeReader builds an HTTPRangeReader for url using client, or
// http.DefaultClient if client is nil.
func NewHTTPRangeReader(url string, client *http.Client) *HTTPRangeReader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRangeReader{url: url, client: client}
}

// ReadRange implements RangeReader.
func (h *HTTPRangeReader) ReadRange(offset, length uint64) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, h.url, nil)
	if err != nil {
		return nil, newIOError(err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, newIOError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, newIOError(fmt.Errorf("http range request failed: status %d", resp.StatusCode))
	}

	buf := make([]byte, length)
	n := 0
	for n < len(buf) {
		r, err := resp.Body.Read(buf[n:])
		n += r
		if err != nil {
			break
		}
	}
	return buf[:n], nil
}

// CloudRangeReader implements RangeReader over a gocloud.dev/blob bucket,
// so any of its registered drivers (s3blob, gcsblob, azureblob) can back
// a Reader without a custom per-cloud implementation.
type CloudRangeReader struct {
	bucket *blob.Bucket
	key    string
}

// OpenCloudRangeReader opens bucketURL (e.g. "s3://my-bucket",
// "gs://my-bucket", "azblob://my-container") via gocloud.dev/blob and
// returns a RangeReader for key within it.
func OpenCloudRangeReader(ctx context.Context, bucketURL, key string) (*CloudRangeReader, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, newIOError(err)
	}
	return &CloudRangeReader{bucket: bucket, key: key}, nil
}

// ReadRange implements RangeReader.
func (c *CloudRangeReader) ReadRange(offset, length uint64) ([]byte, error) {
	ctx := context.Background()
	reader, err := c.bucket.NewRangeReader(ctx, c.key, int64(offset), int64(length), nil)
	if err != nil {
		return nil, newIOError(err)
	}
	defer reader.Close()

	buf := make([]byte, length)
	n := 0
	for n < len(buf) {
		r, rerr := reader.Read(buf[n:])
		n += r
		if rerr != nil {
			break
		}
	}
	return buf[:n], nil
}

// Close releases the underlying bucket handle.
func (c *CloudRangeReader) Close() error {
	return c.bucket.Close()
}

// OpenRangeReader picks a RangeReader implementation from a location
// string: "http(s)://" for HTTPRangeReader, "file://" or a plain
// filesystem path for FileRangeReader, and any other scheme
// ("s3://","gs://","azblob://", ...) for CloudRangeReader.
func OpenRangeReader(ctx context.Context, location string) (RangeReader, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPRangeReader(location, nil), nil
	case strings.HasPrefix(location, "file://"):
		return NewFileRangeReader(strings.TrimPrefix(location, "file://")), nil
	case strings.Contains(location, "://"):
		u := strings.SplitN(location, "://", 2)
		bucketURL := u[0] + "://" + filepath.Dir(u[1])
		key := filepath.Base(u[1])
		return OpenCloudRangeReader(ctx, bucketURL, key)
	default:
		return NewFileRangeReader(location), nil
	}
}
