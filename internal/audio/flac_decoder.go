package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/mewkiz/flac"
)

// FLACStream implements PCMStream for FLAC files
type FLACStream struct {
	pcmBuffer
	stream *flac.Stream
	closer io.Closer
	format Format
	out    []byte
}

func newFLACStream(r io.Reader, closer io.Closer) (PCMStream, error) {
	// Parse FLAC stream - reads signature and StreamInfo block
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create FLAC decoder: %v", ErrUnsupportedFormat, err)
	}

	info := stream.Info
	format := Format{
		Codec:       "flac",
		SampleRate:  int(info.SampleRate),
		Channels:    int(info.NChannels),
		TotalFrames: int64(info.NSamples),
	}
	if info.SampleRate > 0 {
		format.Duration = time.Duration(float64(info.NSamples) / float64(info.SampleRate) * float64(time.Second))
	}

	s := &FLACStream{
		stream: stream,
		closer: closer,
		format: format,
	}
	s.fill = s.decodeFrame
	return s, nil
}

// decodeFrame parses the next FLAC frame and interleaves its subframes
func (s *FLACStream) decodeFrame() ([]byte, error) {
	frame, err := s.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
	}

	// FLAC frames contain one subframe per channel
	channels := len(frame.Subframes)
	if channels == 0 {
		return nil, io.EOF
	}
	frameSamples := len(frame.Subframes[0].Samples)
	bitsPerSample := int(frame.BitsPerSample)

	s.out = s.out[:0]
	for i := 0; i < frameSamples; i++ {
		for ch := 0; ch < channels; ch++ {
			s.out = putS16(s.out, scaleTo16(int(frame.Subframes[ch].Samples[i]), bitsPerSample))
		}
	}
	if len(s.out) == 0 {
		// Empty frame; ask for the next one
		return s.decodeFrame()
	}
	return s.out, nil
}

func (s *FLACStream) Read(p []byte) (int, error) {
	return s.read(p)
}

func (s *FLACStream) Skip(n int64) (int64, error) {
	return s.skip(n)
}

// Format returns the stream metadata
func (s *FLACStream) Format() Format {
	return s.format
}

// Close closes the decoder and releases resources
func (s *FLACStream) Close() error {
	if s.stream != nil {
		s.stream.Close()
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
