package output

import (
	"encoding/binary"
	"math"

	"github.com/oov/audio/resampler"
)

// resampleQuality is the oov/audio filter quality (0-10).
const resampleQuality = 10

// floatResampler is the part of the oov/audio resampler used here.
type floatResampler interface {
	ProcessFloat32(channel int, in, out []float32) (read, written int)
}

// converter adapts S16LE interleaved PCM to another channel count and
// sample rate. Only mono to stereo upmixing is supported.
type converter struct {
	inChannels  int
	outChannels int
	resampler   floatResampler
	in          [][]float32
	out         [][]float32
	scratch     []float32
	buf         []byte
}

func newConverter(inChannels, inRate, outChannels, outRate int) *converter {
	c := &converter{inChannels: inChannels, outChannels: outChannels}
	if inRate != outRate {
		c.resampler = resampler.New(inChannels, inRate, outRate, resampleQuality)
		c.in = make([][]float32, inChannels)
		c.out = make([][]float32, inChannels)
	}
	return c
}

// passthrough reports whether convert returns its input unchanged.
func (c *converter) passthrough() bool {
	return c.resampler == nil && c.inChannels == c.outChannels
}

// convert returns p in the output format. The result is reused by the
// next call.
func (c *converter) convert(p []byte) []byte {
	if c.passthrough() {
		return p
	}

	frameSize := c.inChannels * 2
	frames := len(p) / frameSize

	if c.resampler == nil {
		c.buf = c.buf[:0]
		for i := 0; i < frames; i++ {
			s := p[i*frameSize : i*frameSize+2]
			for ch := 0; ch < c.outChannels; ch++ {
				c.buf = append(c.buf, s...)
			}
		}
		return c.buf
	}

	// Planar float32 for the resampler
	for ch := 0; ch < c.inChannels; ch++ {
		c.in[ch] = growFloat32(c.in[ch], frames)
		for i := 0; i < frames; i++ {
			off := i*frameSize + ch*2
			c.in[ch][i] = float32(int16(binary.LittleEndian.Uint16(p[off:]))) / 32768
		}
	}

	written := 0
	for ch := 0; ch < c.inChannels; ch++ {
		in := c.in[ch]
		out := c.out[ch][:0]
		for len(in) > 0 {
			c.scratch = growFloat32(c.scratch, len(in)*4+64)
			read, n := c.resampler.ProcessFloat32(ch, in, c.scratch)
			out = append(out, c.scratch[:n]...)
			in = in[read:]
			if read == 0 {
				break
			}
		}
		c.out[ch] = out
		if ch == 0 || len(out) < written {
			written = len(out)
		}
	}

	c.buf = c.buf[:0]
	for i := 0; i < written; i++ {
		for ch := 0; ch < c.outChannels; ch++ {
			v := c.out[min(ch, c.inChannels-1)][i]
			s := int16(math.Max(-32768, math.Min(32767, float64(v)*32768)))
			c.buf = binary.LittleEndian.AppendUint16(c.buf, uint16(s))
		}
	}
	return c.buf
}

func growFloat32(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	return s[:n]
}
