package output

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/config"
)

var (
	// ErrDeviceUnavailable is returned when no output device can be opened
	// for a format.
	ErrDeviceUnavailable = errors.New("audio output device unavailable")

	// ErrClosed is returned by writes to a closed device.
	ErrClosed = errors.New("audio output closed")

	// ErrNotOpen is returned by operations that need an open device.
	ErrNotOpen = errors.New("audio output not open")
)

// Device is an audio output sink for S16LE interleaved PCM.
type Device interface {
	// Open prepares the device for format with a queue of bufferSize bytes.
	Open(format audio.Format, bufferSize int) error

	// Start begins (or resumes) consuming queued audio
	Start() error

	// Stop pauses consumption; queued audio is kept
	Stop() error

	// Flush discards queued audio and releases a blocked Write
	Flush()

	// Drain waits until queued audio has been played
	Drain()

	// Close releases the device; a blocked Write returns ErrClosed
	Close() error

	// Write queues p, blocking while the queue is full
	Write(p []byte) (int, error)

	// BufferSize returns the queue capacity in bytes
	BufferSize() int

	// Queued returns the number of bytes waiting to be played
	Queued() int

	// Controls returns the device's float controls
	Controls() Controls
}

// Controls lists the optional controls of an open device. A nil entry means
// the device has no such control.
type Controls struct {
	Gain *FloatControl // master gain in dB
	Pan  *FloatControl // stereo balance, -1 (left) to 1 (right)
}

// New creates an unopened device for the named backend.
func New(backend string) (Device, error) {
	switch backend {
	case config.BackendOto:
		return NewOto(), nil
	case config.BackendMalgo:
		return NewMalgo(), nil
	case config.BackendNull:
		return NewNull(), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrDeviceUnavailable, backend)
}

// FloatControl is a bounded float setting applied through a callback.
type FloatControl struct {
	mu    sync.Mutex
	name  string
	min   float64
	max   float64
	value float64
	apply func(float64)
}

// NewFloatControl creates a control clamped to [min, max]. apply may be nil.
func NewFloatControl(name string, min, max, initial float64, apply func(float64)) *FloatControl {
	c := &FloatControl{name: name, min: min, max: max, apply: apply}
	c.Set(initial)
	return c
}

func (c *FloatControl) Name() string { return c.name }
func (c *FloatControl) Min() float64 { return c.min }
func (c *FloatControl) Max() float64 { return c.max }

// Value returns the current setting.
func (c *FloatControl) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set clamps v to the control range, applies it and returns the applied value.
func (c *FloatControl) Set(v float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if math.IsNaN(v) {
		v = c.value
	}
	v = min(max(v, c.min), c.max)
	c.value = v
	if c.apply != nil {
		c.apply(v)
	}
	return v
}

// DBToLinear converts a gain in decibels to an amplitude multiplier.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
