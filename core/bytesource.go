package core

import (
	"fmt"
	"io"
	"os"
)

// ByteSource is random access to the raw bytes of a document. Both the
// lexer and the lazy stream windows read through this interface, so one
// open file can back any number of concurrently held streams.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// BytesSource serves a document held fully in memory.
type BytesSource struct {
	data []byte
}

// NewBytesSource wraps a byte slice as a ByteSource.
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

func (s *BytesSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *BytesSource) Size() int64 {
	return int64(len(s.data))
}

// FileSource serves a document from an open file. The size is captured
// at construction time.
type FileSource struct {
	file *os.File
	size int64
}

// NewFileSource wraps an open file as a ByteSource.
func NewFileSource(file *os.File) (*FileSource, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", file.Name(), err)
	}
	return &FileSource{file: file, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}

// readRange reads up to length bytes starting at offset, clamped to the
// source bounds. Short reads return what was available.
func readRange(src ByteSource, offset, length int64) []byte {
	if offset < 0 {
		length += offset
		offset = 0
	}
	if remaining := src.Size() - offset; length > remaining {
		length = remaining
	}
	if length <= 0 {
		return nil
	}
	buf := make([]byte, length)
	n, _ := src.ReadAt(buf, offset)
	return buf[:n]
}
