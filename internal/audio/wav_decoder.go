package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkSamples is the number of interleaved samples decoded per fill.
const wavChunkSamples = 4096

// WAVStream implements PCMStream for WAV files
type WAVStream struct {
	pcmBuffer
	decoder *wav.Decoder
	closer  io.Closer
	format  Format
	intBuf  *audio.IntBuffer
	out     []byte
}

func newWAVStream(r io.Reader, closer io.Closer) (PCMStream, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		// The WAV decoder needs to seek between chunks, buffer the whole stream
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to buffer WAV stream: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	decoder := wav.NewDecoder(rs)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrUnsupportedFormat)
	}

	// Get format info without reading all samples
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}
	if decoder.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: WAV encoding %d is not integer PCM", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	numChans := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	sampleRate := int(decoder.SampleRate)

	var totalFrames int64
	if bitDepth > 0 && numChans > 0 {
		totalFrames = decoder.PCMLen() / int64(bitDepth/8*numChans)
	}
	var duration time.Duration
	if sampleRate > 0 {
		duration = time.Duration(float64(totalFrames) / float64(sampleRate) * float64(time.Second))
	}

	s := &WAVStream{
		decoder: decoder,
		closer:  closer,
		format: Format{
			Codec:       "wav",
			SampleRate:  sampleRate,
			Channels:    numChans,
			TotalFrames: totalFrames,
			Duration:    duration,
		},
		intBuf: &audio.IntBuffer{
			Data: make([]int, wavChunkSamples-wavChunkSamples%max(numChans, 1)),
			Format: &audio.Format{
				NumChannels: numChans,
				SampleRate:  sampleRate,
			},
		},
	}
	s.fill = s.decodeChunk
	return s, nil
}

// decodeChunk reads the next block of integer samples and re-encodes them as S16LE
func (s *WAVStream) decodeChunk() ([]byte, error) {
	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	bitDepth := int(s.decoder.BitDepth)
	s.out = s.out[:0]
	for i := 0; i < n; i++ {
		sample := s.intBuf.Data[i]
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			sample -= 128
		}
		s.out = putS16(s.out, scaleTo16(sample, bitDepth))
	}
	return s.out, nil
}

func (s *WAVStream) Read(p []byte) (int, error) {
	return s.read(p)
}

func (s *WAVStream) Skip(n int64) (int64, error) {
	return s.skip(n)
}

// Format returns the stream metadata
func (s *WAVStream) Format() Format {
	return s.format
}

// Close closes the decoder and releases resources
func (s *WAVStream) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
