package output

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/linuxmatters/jiveplay/internal/audio"
)

// oto allows one context per process, created with the first format seen.
// Later formats are converted to it.
var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoRate int
)

const otoChannels = 2

func sharedOtoContext(sampleRate int) (*oto.Context, int, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		return otoCtx, otoRate, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: otoChannels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, 0, err
	}
	<-ready

	otoCtx = ctx
	otoRate = sampleRate
	return otoCtx, otoRate, nil
}

// Oto plays audio through ebitengine/oto. Gain is applied with the player
// volume; there is no pan control.
type Oto struct {
	mu        sync.Mutex
	format    audio.Format
	queue     *Queue
	player    *oto.Player
	converter *converter
	controls  Controls
	started   bool
}

// NewOto creates an unopened oto device.
func NewOto() *Oto {
	return &Oto{}
}

func (o *Oto) Open(format audio.Format, bufferSize int) error {
	if format.FrameSize() == 0 || format.SampleRate <= 0 {
		return fmt.Errorf("%w: invalid format %s", ErrDeviceUnavailable, format)
	}

	ctx, rate, err := sharedOtoContext(format.SampleRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeLocked()

	if rate != format.SampleRate {
		slog.Info("Resampling for shared oto context", "from", format.SampleRate, "to", rate)
	}
	o.format = format
	o.converter = newConverter(format.Channels, format.SampleRate, otoChannels, rate)

	// Queue holds device-format bytes
	scale := float64(otoChannels*rate) / float64(format.Channels*format.SampleRate)
	capacity := int(float64(bufferSize) * scale)
	capacity -= capacity % (otoChannels * 2)
	o.queue = NewQueue(capacity)

	player := ctx.NewPlayer(&queueReader{queue: o.queue})
	o.player = player
	o.controls = Controls{
		Gain: NewFloatControl("gain", softGainMinDB, 0, 0, func(db float64) {
			player.SetVolume(DBToLinear(db))
		}),
	}
	o.started = false
	return nil
}

func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Play()
	o.started = true
	return nil
}

func (o *Oto) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	o.started = false
	return nil
}

func (o *Oto) Flush() {
	o.mu.Lock()
	q := o.queue
	o.mu.Unlock()
	if q != nil {
		q.Flush()
	}
}

func (o *Oto) Drain() {
	o.mu.Lock()
	q, player, started := o.queue, o.player, o.started
	byteRate := otoChannels * 2 * otoRate
	o.mu.Unlock()
	if q == nil || !started {
		return
	}

	q.WaitEmpty(drainTimeout(q.Len(), byteRate))

	// The player keeps its own buffer downstream of the queue
	deadline := time.Now().Add(drainTimeout(player.BufferedSize(), byteRate))
	for player.BufferedSize() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closeLocked()
}

func (o *Oto) closeLocked() error {
	var err error
	if o.queue != nil {
		o.queue.Close()
		o.queue = nil
	}
	if o.player != nil {
		err = o.player.Close()
		o.player = nil
	}
	o.controls = Controls{}
	o.started = false
	return err
}

// Write converts p to the context format and queues it. A flush during the
// write reports the source bytes that made it into the queue.
func (o *Oto) Write(p []byte) (int, error) {
	o.mu.Lock()
	q, conv := o.queue, o.converter
	o.mu.Unlock()
	if q == nil {
		return 0, ErrClosed
	}

	out := conv.convert(p)
	n, err := q.Write(out)
	if n == len(out) {
		return len(p), err
	}
	consumed := int(float64(n) / float64(max(len(out), 1)) * float64(len(p)))
	frameSize := o.format.FrameSize()
	return consumed - consumed%frameSize, err
}

func (o *Oto) BufferSize() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.queue == nil {
		return 0
	}
	return o.queue.Cap()
}

func (o *Oto) Queued() int {
	o.mu.Lock()
	q := o.queue
	o.mu.Unlock()
	if q == nil {
		return 0
	}
	return q.Len()
}

func (o *Oto) Controls() Controls {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.controls
}

// queueReader feeds an oto player. On underrun it supplies silence so the
// player keeps running; a closed queue ends the stream.
type queueReader struct {
	queue *Queue
}

func (r *queueReader) Read(p []byte) (int, error) {
	if _, err := r.queue.Read(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
