package exporter

import (
	"fmt"
	"io"
	"os"
)

// Sink is the rewindable byte sink holding the whole artifact between
// encoding and upload. Writes are sequential; the runner rewinds once and
// streams the contents to the object store.
type Sink interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Size() (int64, error)
}

// memorySink keeps the artifact in process memory.
type memorySink struct {
	buf []byte
	off int64
}

// NewMemorySink creates an in-memory sink.
func NewMemorySink() Sink {
	return &memorySink{}
}

func (s *memorySink) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *memorySink) Read(p []byte) (int, error) {
	if s.off >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.off:])
	s.off += int64(n)
	return n, nil
}

func (s *memorySink) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.off + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence: %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative seek position: %d", abs)
	}
	s.off = abs
	return abs, nil
}

func (s *memorySink) Size() (int64, error) {
	return int64(len(s.buf)), nil
}

func (s *memorySink) Close() error {
	s.buf = nil
	s.off = 0
	return nil
}

// fileSink spills the artifact to a temp file, for large result sets.
// The file is removed on Close.
type fileSink struct {
	f *os.File
}

// NewFileSink creates a temp-file-backed sink.
func NewFileSink() (Sink, error) {
	f, err := os.CreateTemp("", "regexport-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp sink: %w", err)
	}
	return &fileSink{f: f}, nil
}

func (s *fileSink) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *fileSink) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *fileSink) Seek(off int64, whence int) (int64, error) { return s.f.Seek(off, whence) }

func (s *fileSink) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *fileSink) Close() error {
	name := s.f.Name()
	err := s.f.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	return err
}
