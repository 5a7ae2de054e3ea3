package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always outputs interleaved 16-bit stereo: L0 R0 L1 R1 ...
const mp3FrameSize = 4

// MP3Stream implements PCMStream for MP3 files
type MP3Stream struct {
	pcmBuffer
	decoder  *mp3.Decoder
	closer   io.Closer
	format   Format
	position int64
	chunk    []byte
}

func newMP3Stream(r io.Reader, closer io.Closer) (PCMStream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create MP3 decoder: %v", ErrUnsupportedFormat, err)
	}

	sampleRate := decoder.SampleRate()
	format := Format{
		Codec:      "mp3",
		SampleRate: sampleRate,
		Channels:   2,
	}
	// Length is only known when the source can seek
	if length := decoder.Length(); length > 0 {
		format.TotalFrames = length / mp3FrameSize
		format.Duration = time.Duration(float64(format.TotalFrames) / float64(sampleRate) * float64(time.Second))
	}

	s := &MP3Stream{
		decoder: decoder,
		closer:  closer,
		format:  format,
		chunk:   make([]byte, 8192),
	}
	s.fill = s.decodeChunk
	return s, nil
}

func (s *MP3Stream) decodeChunk() ([]byte, error) {
	n, err := s.decoder.Read(s.chunk)
	if n > 0 {
		if err == io.EOF {
			err = nil
		}
		return s.chunk[:n], err
	}
	if err == nil || err == io.EOF {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("failed to read MP3 data: %w", err)
}

func (s *MP3Stream) Read(p []byte) (int, error) {
	n, err := s.read(p)
	s.position += int64(n)
	return n, err
}

// Skip seeks the decoder directly when the source is seekable and falls
// back to decoding and discarding otherwise.
func (s *MP3Stream) Skip(n int64) (int64, error) {
	length := s.decoder.Length()
	if length <= 0 || len(s.pending) > 0 {
		skipped, err := s.skip(n)
		s.position += skipped
		return skipped, err
	}

	target := min(s.position+n, length)
	target -= target % mp3FrameSize
	if target <= s.position {
		return 0, nil
	}
	if _, err := s.decoder.Seek(target, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek MP3 stream: %w", err)
	}
	skipped := target - s.position
	s.position = target
	return skipped, nil
}

// Format returns the stream metadata
func (s *MP3Stream) Format() Format {
	return s.format
}

// Close closes the decoder and releases resources
func (s *MP3Stream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
