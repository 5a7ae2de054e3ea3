package output

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/linuxmatters/jiveplay/internal/audio"
)

// Malgo plays audio through miniaudio. Gain and pan are applied in software
// inside the data callback.
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	queue    *Queue
	mixer    *softMixer
	controls Controls
	started  bool
}

// NewMalgo creates an unopened malgo device.
func NewMalgo() *Malgo {
	return &Malgo{}
}

func (m *Malgo) Open(format audio.Format, bufferSize int) error {
	if format.FrameSize() == 0 || format.SampleRate <= 0 {
		return fmt.Errorf("%w: invalid format %s", ErrDeviceUnavailable, format)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("%w: failed to initialize malgo context: %v", ErrDeviceUnavailable, err)
		}
		m.malgoCtx = ctx
	}

	queue := NewQueue(bufferSize - bufferSize%format.FrameSize())
	mixer := newSoftMixer()
	channels := format.Channels
	frameSize := format.FrameSize()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		out := pOutputSample[:int(frameCount)*frameSize]
		if _, err := queue.Read(out); err != nil {
			return
		}
		mixer.apply(out, channels)
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to initialize playback device: %v", ErrDeviceUnavailable, err)
	}

	m.device = device
	m.format = format
	m.queue = queue
	m.mixer = mixer
	m.controls = softControls(mixer, channels, softGainMaxDB)
	m.started = false

	slog.Debug("Audio output initialized", "backend", "malgo", "format", format.String())
	return nil
}

func (m *Malgo) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil {
		return ErrNotOpen
	}
	if m.started {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	m.started = true
	return nil
}

func (m *Malgo) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device == nil || !m.started {
		return nil
	}
	m.started = false
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}
	return nil
}

func (m *Malgo) Flush() {
	if q := m.currentQueue(); q != nil {
		q.Flush()
	}
}

func (m *Malgo) Drain() {
	m.mu.Lock()
	q, started, byteRate := m.queue, m.started, m.format.ByteRate()
	m.mu.Unlock()
	if q == nil || !started {
		return
	}
	q.WaitEmpty(drainTimeout(q.Len(), byteRate))
}

// Close releases the device and the miniaudio context.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			slog.Warn("malgo context uninit failed", "error", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeLocked stops and uninitializes the device. Must hold m.mu.
func (m *Malgo) closeLocked() {
	if m.queue != nil {
		m.queue.Close()
		m.queue = nil
	}
	if m.device != nil {
		if m.started {
			if err := m.device.Stop(); err != nil {
				slog.Warn("malgo device stop failed", "error", err)
			}
		}
		m.device.Uninit()
		m.device = nil
	}
	m.controls = Controls{}
	m.started = false
}

func (m *Malgo) Write(p []byte) (int, error) {
	q := m.currentQueue()
	if q == nil {
		return 0, ErrClosed
	}
	return q.Write(p)
}

func (m *Malgo) BufferSize() int {
	if q := m.currentQueue(); q != nil {
		return q.Cap()
	}
	return 0
}

func (m *Malgo) Queued() int {
	if q := m.currentQueue(); q != nil {
		return q.Len()
	}
	return 0
}

func (m *Malgo) Controls() Controls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controls
}

func (m *Malgo) currentQueue() *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue
}
