package audio

import (
	"encoding/binary"
	"errors"
	"io"
)

// maxSkipChunk bounds how much a single Skip call decodes and discards.
const maxSkipChunk = 64 * 1024

// pcmBuffer adapts a chunk-producing decoder to io.Reader semantics.
// fill must return either a non-empty chunk or an error.
type pcmBuffer struct {
	pending []byte
	fill    func() ([]byte, error)
	err     error
	scratch []byte
}

func (b *pcmBuffer) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(b.pending) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		chunk, err := b.fill()
		b.pending = chunk
		if err != nil {
			b.err = err
		}
	}
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	return n, nil
}

func (b *pcmBuffer) skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if n > maxSkipChunk {
		n = maxSkipChunk
	}
	if b.scratch == nil {
		b.scratch = make([]byte, maxSkipChunk)
	}
	var skipped int64
	for skipped < n {
		read, err := b.read(b.scratch[:n-skipped])
		skipped += int64(read)
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// putS16 appends a normalized sample as signed 16-bit little-endian.
func putS16(dst []byte, v int) []byte {
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return binary.LittleEndian.AppendUint16(dst, uint16(int16(v)))
}

// scaleTo16 shifts a sample of the given bit depth into the 16-bit range.
func scaleTo16(sample, bitDepth int) int {
	switch {
	case bitDepth > 16:
		return sample >> (bitDepth - 16)
	case bitDepth < 16 && bitDepth > 0:
		return sample << (16 - bitDepth)
	}
	return sample
}

// DeinterleaveS16 converts a block of S16LE interleaved PCM into normalized
// left and right channels in the range [-1.0, 1.0). For mono input the right
// channel mirrors the left. Frames missing from a short block are zeroed.
// It returns the number of frames decoded from block.
func DeinterleaveS16(block []byte, channels int, left, right []float64) int {
	frameSize := channels * 2
	frames := 0
	if frameSize > 0 {
		frames = len(block) / frameSize
	}
	if frames > len(left) {
		frames = len(left)
	}
	if frames > len(right) {
		frames = len(right)
	}

	for i := 0; i < frames; i++ {
		off := i * frameSize
		l := float64(int16(binary.LittleEndian.Uint16(block[off:]))) / 32768.0
		left[i] = l
		if channels == 1 {
			right[i] = l
			continue
		}
		right[i] = float64(int16(binary.LittleEndian.Uint16(block[off+2:]))) / 32768.0
	}
	clear(left[frames:])
	clear(right[frames:])
	return frames
}
