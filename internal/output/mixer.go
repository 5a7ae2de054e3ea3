package output

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// Software gain range for backends without a hardware mixer
const (
	softGainMinDB = -80.0
	softGainMaxDB = 6.0
)

// softMixer applies gain and balance to S16LE frames in place. Settings
// are atomics so the real-time callback never takes a lock.
type softMixer struct {
	gain atomic.Uint64 // float64 bits, linear multiplier
	pan  atomic.Uint64 // float64 bits, -1..1
}

func newSoftMixer() *softMixer {
	m := &softMixer{}
	m.setGainDB(0)
	m.setPan(0)
	return m
}

func (m *softMixer) setGainDB(db float64) {
	m.gain.Store(math.Float64bits(DBToLinear(db)))
}

func (m *softMixer) setPan(p float64) {
	m.pan.Store(math.Float64bits(p))
}

// gains returns the per-channel multipliers for the current settings.
func (m *softMixer) gains(channels int) (left, right float64) {
	g := math.Float64frombits(m.gain.Load())
	if channels < 2 {
		return g, g
	}
	p := math.Float64frombits(m.pan.Load())
	left, right = g, g
	if p > 0 {
		left *= 1 - p
	} else if p < 0 {
		right *= 1 + p
	}
	return left, right
}

// apply scales p, which holds whole S16LE frames of the given channel count.
func (m *softMixer) apply(p []byte, channels int) {
	left, right := m.gains(channels)
	if left == 1 && right == 1 {
		return
	}
	for i := 0; i+1 < len(p); i += 2 {
		g := left
		if channels == 2 && (i/2)%2 == 1 {
			g = right
		}
		s := float64(int16(binary.LittleEndian.Uint16(p[i:]))) * g
		s = min(max(s, -32768), 32767)
		binary.LittleEndian.PutUint16(p[i:], uint16(int16(s)))
	}
}

// softControls builds gain (and, for stereo, pan) controls driving m.
func softControls(m *softMixer, channels int, maxDB float64) Controls {
	c := Controls{
		Gain: NewFloatControl("gain", softGainMinDB, maxDB, 0, m.setGainDB),
	}
	if channels == 2 {
		c.Pan = NewFloatControl("pan", -1, 1, 0, m.setPan)
	}
	return c
}
