package audio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned when a stream cannot be decoded to PCM
// the player can handle.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// BitDepth is the sample size of every decoded PCM stream.
const BitDepth = 16

// Format describes a decoded PCM stream.
type Format struct {
	Codec       string
	SampleRate  int
	Channels    int
	TotalFrames int64 // 0 when the length is unknown
	Duration    time.Duration
}

// FrameSize returns the size in bytes of one frame (one sample per channel).
func (f Format) FrameSize() int {
	return f.Channels * BitDepth / 8
}

// ByteRate returns the number of PCM bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.FrameSize()
}

// Seconds converts a PCM byte count into seconds of audio.
// When the total frame count is known the value is scaled against the
// stream duration, otherwise it is derived from the sample rate.
func (f Format) Seconds(bytes int64) float64 {
	frameSize := f.FrameSize()
	if frameSize == 0 || f.SampleRate == 0 {
		return 0
	}
	framesRead := float64(bytes / int64(frameSize))
	if f.TotalFrames > 0 && f.Duration > 0 {
		return framesRead / float64(f.TotalFrames) * f.Duration.Seconds()
	}
	return framesRead / float64(f.SampleRate)
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch %d-bit", f.Codec, f.SampleRate, f.Channels, BitDepth)
}

// PCMStream is a decoded audio stream. Read yields signed 16-bit
// little-endian interleaved samples regardless of the source encoding.
type PCMStream interface {
	io.Reader

	// Skip discards up to n decoded bytes and returns how many were skipped.
	// A return of 0 with a nil error means no further progress is possible.
	Skip(n int64) (int64, error)

	// Format returns the stream metadata
	Format() Format

	// Close closes the decoder and releases resources
	Close() error
}

// decoderFunc builds a PCMStream from an encoded reader. The closer is
// released together with the stream.
type decoderFunc func(r io.Reader, closer io.Closer) (PCMStream, error)

var decoders = map[string]decoderFunc{
	"wav":  newWAVStream,
	"mp3":  newMP3Stream,
	"flac": newFLACStream,
}

// CodecFromPath returns the codec name implied by a file extension.
func CodecFromPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "wave":
		return "wav"
	case "fla":
		return "flac"
	}
	return ext
}

// NewStream decodes r with the named codec.
func NewStream(r io.Reader, codec string, closer io.Closer) (PCMStream, error) {
	newDecoder, ok := decoders[strings.ToLower(codec)]
	if !ok {
		return nil, fmt.Errorf("%w: codec %q", ErrUnsupportedFormat, codec)
	}
	s, err := newDecoder(r, closer)
	if err != nil {
		return nil, err
	}
	format := s.Format()
	if format.Channels < 1 || format.Channels > 2 {
		s.Close()
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, format.Channels)
	}
	if format.SampleRate <= 0 {
		s.Close()
		return nil, fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, format.SampleRate)
	}
	return s, nil
}
