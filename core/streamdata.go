package core

import (
	"fmt"
	"io"

	"github.com/tsawler/pdfkit/internal/filters"
)

// StreamSource is a pull iterator over the bytes of a stream payload.
// NextChunk returns the next chunk of data, or io.EOF after the final
// chunk has been delivered. A source is consumed once; re-reading requires
// opening a fresh source from the provider.
type StreamSource interface {
	NextChunk() ([]byte, error)
}

// StreamProvider produces fresh StreamSource iterators over the same
// underlying payload, so a stream can be read more than once.
type StreamProvider interface {
	Open() StreamSource
}

// bytesSource iterates over an in-memory payload in chunkSize pieces.
type bytesSource struct {
	data  []byte
	pos   int
	chunk int
}

func (s *bytesSource) NextChunk() ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	end := s.pos + s.chunk
	if end > len(s.data) {
		end = len(s.data)
	}
	part := s.data[s.pos:end]
	s.pos = end
	return part, nil
}

// BytesProvider serves a stream payload from an in-memory byte slice.
type BytesProvider struct {
	Data      []byte
	ChunkSize int
}

// Open returns a fresh iterator over the payload.
func (p *BytesProvider) Open() StreamSource {
	chunk := p.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &bytesSource{data: p.Data, chunk: chunk}
}

// windowSource iterates over a region of a ByteSource.
type windowSource struct {
	src    ByteSource
	offset int64
	end    int64
	chunk  int64
}

func (s *windowSource) NextChunk() ([]byte, error) {
	if s.offset >= s.end {
		return nil, io.EOF
	}
	length := s.chunk
	if s.offset+length > s.end {
		length = s.end - s.offset
	}
	buf := make([]byte, length)
	n, err := s.src.ReadAt(buf, s.offset)
	if n == 0 {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	s.offset += int64(n)
	return buf[:n], nil
}

// WindowProvider serves a stream payload from a byte range of a ByteSource
// without buffering the whole payload.
type WindowProvider struct {
	Source    ByteSource
	Offset    int64
	Length    int64
	ChunkSize int
}

// Open returns a fresh iterator over the byte range.
func (p *WindowProvider) Open() StreamSource {
	chunk := int64(p.ChunkSize)
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &windowSource{src: p.Source, offset: p.Offset, end: p.Offset + p.Length, chunk: chunk}
}

// FuncProvider adapts a caller-supplied factory into a StreamProvider.
// Used for encrypt hooks that wrap a payload on the fly.
type FuncProvider func() StreamSource

// Open calls the factory.
func (p FuncProvider) Open() StreamSource { return p() }

// funcSource adapts a chunk-producing closure into a StreamSource.
type funcSource struct {
	next func() ([]byte, error)
}

func (s *funcSource) NextChunk() ([]byte, error) { return s.next() }

// SourceFunc wraps a closure as a StreamSource. The closure returns io.EOF
// after the final chunk.
func SourceFunc(next func() ([]byte, error)) StreamSource {
	return &funcSource{next: next}
}

// DrainSource reads a source to completion and returns the collected bytes.
func DrainSource(src StreamSource) ([]byte, error) {
	var out []byte
	for {
		chunk, err := src.NextChunk()
		if len(chunk) > 0 {
			out = append(out, chunk...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

// Stream represents a PDF stream object: a dictionary plus an associated,
// possibly lazy byte payload. The declared /Length entry is advisory; the
// payload is the source of truth and /Length is corrected whenever the
// raw bytes are materialized or written.
type Stream struct {
	Dict     Dict
	provider StreamProvider
}

// NewStream creates a stream over the given payload provider. A nil dict
// is replaced with an empty one.
func NewStream(dict Dict, provider StreamProvider) *Stream {
	if dict == nil {
		dict = make(Dict)
	}
	return &Stream{Dict: dict, provider: provider}
}

// NewStreamFromBytes creates a stream over an in-memory payload.
func NewStreamFromBytes(dict Dict, data []byte) *Stream {
	return NewStream(dict, &BytesProvider{Data: data})
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s", s.Dict.String())
}

// Provider returns the payload provider, or nil for an empty stream.
func (s *Stream) Provider() StreamProvider {
	return s.provider
}

// SetProvider replaces the payload provider.
func (s *Stream) SetProvider(provider StreamProvider) {
	s.provider = provider
}

// Open returns a fresh iterator over the raw (still encoded) payload.
func (s *Stream) Open() StreamSource {
	if s.provider == nil {
		return &bytesSource{chunk: DefaultChunkSize}
	}
	return s.provider.Open()
}

// Bytes materializes the raw payload and corrects the /Length entry to the
// actual byte count.
func (s *Stream) Bytes() ([]byte, error) {
	data, err := DrainSource(s.Open())
	if err != nil {
		return nil, err
	}
	s.Dict.Set("Length", Int(len(data)))
	return data, nil
}

// Decoded materializes the payload and applies the /Filter chain declared
// in the stream dictionary. Codec failures are reported as filter errors,
// distinguishable from syntax errors via errors.As with *filters.Error.
func (s *Stream) Decoded() ([]byte, error) {
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}

	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return data, nil
	}
	paramsObj := s.Dict.Get("DecodeParms")

	names, paramsList, err := filterChain(filterObj, paramsObj)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		data, err = filters.Decode(name, data, paramsList[i])
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
	}
	return data, nil
}

// filterChain normalizes the /Filter and /DecodeParms entries into parallel
// slices of filter names and parameter maps.
func filterChain(filterObj, paramsObj Object) ([]string, []filters.Params, error) {
	var names []string
	switch v := filterObj.(type) {
	case Name:
		names = []string{string(v)}
	case Array:
		for i, f := range v {
			name, ok := f.(Name)
			if !ok {
				return nil, nil, fmt.Errorf("filter %d is not a name: %T", i, f)
			}
			names = append(names, string(name))
		}
	default:
		return nil, nil, fmt.Errorf("invalid Filter type: %T", filterObj)
	}

	paramsList := make([]filters.Params, len(names))
	switch v := paramsObj.(type) {
	case Dict:
		for i := range paramsList {
			paramsList[i] = dictToParams(v)
		}
	case Array:
		for i := range paramsList {
			if i < len(v) {
				if d, ok := v[i].(Dict); ok {
					paramsList[i] = dictToParams(d)
				}
			}
		}
	}
	return names, paramsList, nil
}

// dictToParams converts a Dict to filters.Params, translating PDF object
// types to Go primitive types.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params)
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
