// Package keyfile assembles keyfile byte streams (plain, directory,
// or PKCS#11-token-backed) and mixes them into a fixed-size password
// pool via a CRC32 diffusion rule, plus the Bluekey/Redkey one-shot
// encrypt/decrypt flows built on the same stream assembly.
package keyfile

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// FileOptimalReadSize is the staging chunk size used when pulling from
// an open file, matching a typical platform page-cache read-ahead
// granularity.
const FileOptimalReadSize = 64 * 1024

// Stream is the pull-model byte source every keyfile assembly step
// produces: Read behaves like io.Reader (0, io.EOF marks end of
// stream; short reads without EOF are permitted), and Close releases
// any underlying OS resource.
type Stream interface {
	io.Reader
	io.Closer
}

// MemoryStream yields the bytes of a fixed buffer exactly once.
type MemoryStream struct {
	data []byte
	pos  int
}

// NewMemoryStream wraps b. b is not copied, and Close overwrites it
// with zeros; callers that need to retain b after the stream is closed
// should pass a copy.
func NewMemoryStream(b []byte) *MemoryStream {
	return &MemoryStream{data: b}
}

func (s *MemoryStream) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

// Close zeroes the wrapped buffer so secret keyfile bytes (such as
// token-decrypted plaintext) do not outlive the mixing pass.
func (s *MemoryStream) Close() error {
	for i := range s.data {
		s.data[i] = 0
	}
	return nil
}

// FileStream pulls from an open file, passing each Read straight
// through with the caller's buffer size.
type FileStream struct {
	f *os.File
}

// NewFileStream wraps an already-open file. Close closes f.
func NewFileStream(f *os.File) *FileStream {
	return &FileStream{f: f}
}

// OpenFileStream opens path for reading and wraps it.
func OpenFileStream(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewFileStream(f), nil
}

func (s *FileStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	if err != nil && err != io.EOF {
		return n, errors.WithStack(err)
	}
	return n, err
}

func (s *FileStream) Close() error { return s.f.Close() }

// PipelineStream concatenates an ordered list of sub-streams. Each
// Read delegates to the current sub-stream; on a zero-length read from
// the current sub-stream it advances to the next and retries. It
// returns (0, io.EOF) only once every sub-stream is drained. Close
// closes every sub-stream regardless of how far the pipeline was
// read, returning the first error encountered.
type PipelineStream struct {
	streams []Stream
	idx     int
}

// NewPipelineStream concatenates streams in the given order.
func NewPipelineStream(streams ...Stream) *PipelineStream {
	return &PipelineStream{streams: streams}
}

func (s *PipelineStream) Read(p []byte) (int, error) {
	for s.idx < len(s.streams) {
		n, err := s.streams[s.idx].Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		// A zero-length read, EOF or not, means this sub-stream is
		// exhausted: advance and retry against the next one.
		s.idx++
	}
	return 0, io.EOF
}

func (s *PipelineStream) Close() error {
	var first error
	for _, sub := range s.streams {
		if err := sub.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
