package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ErrSourceConsumed is returned when a single-shot source is opened twice.
var ErrSourceConsumed = errors.New("stream source already consumed")

// Source is something the player can open into a decoded PCM stream.
type Source interface {
	// Name identifies the source in logs and events
	Name() string

	// Seekable reports whether the source can be reopened from the start,
	// which is how seeking is implemented.
	Seekable() bool

	// Open returns a fresh decoded stream positioned at the start
	Open() (PCMStream, error)
}

// FileSource is a file-backed, seekable source. The codec is taken from
// the file extension unless Codec is set.
type FileSource struct {
	Path  string
	Codec string
}

// NewFileSource creates a source for the audio file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Seekable() bool { return true }

func (s *FileSource) Open() (PCMStream, error) {
	codec := s.Codec
	if codec == "" {
		codec = CodecFromPath(s.Path)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	stream, err := NewStream(f, codec, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", s.Path, err)
	}
	return stream, nil
}

// ReaderSource wraps an already-open stream of encoded audio. It can be
// opened once and does not support seeking.
type ReaderSource struct {
	r      io.Reader
	codec  string
	name   string
	opened atomic.Bool
}

// NewReaderSource creates a single-shot source decoding r with codec.
func NewReaderSource(r io.Reader, codec, name string) *ReaderSource {
	return &ReaderSource{r: r, codec: codec, name: name}
}

func (s *ReaderSource) Name() string { return s.name }

func (s *ReaderSource) Seekable() bool { return false }

func (s *ReaderSource) Open() (PCMStream, error) {
	if s.opened.Swap(true) {
		return nil, ErrSourceConsumed
	}
	var closer io.Closer
	if c, ok := s.r.(io.Closer); ok {
		closer = c
	}
	return NewStream(s.r, s.codec, closer)
}
