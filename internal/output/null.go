package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/jiveplay/internal/audio"
)

const nullTick = 5 * time.Millisecond

// Null is an output device that discards audio at the format's byte rate,
// paced by the wall clock. It behaves like real hardware for timing and
// backpressure without needing a sound card.
type Null struct {
	mu       sync.Mutex
	format   audio.Format
	queue    *Queue
	mixer    *softMixer
	controls Controls
	speed    float64
	running  bool
	stop     chan struct{}
	done     chan struct{}
	played   atomic.Int64
}

// NullOption configures a Null device.
type NullOption func(*Null)

// WithSpeed consumes audio speed times faster than real time.
func WithSpeed(speed float64) NullOption {
	return func(n *Null) {
		if speed > 0 {
			n.speed = speed
		}
	}
}

// NewNull creates an unopened null device.
func NewNull(opts ...NullOption) *Null {
	n := &Null{speed: 1}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Null) Open(format audio.Format, bufferSize int) error {
	if format.FrameSize() == 0 || format.SampleRate <= 0 {
		return fmt.Errorf("%w: invalid format %s", ErrDeviceUnavailable, format)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.queue != nil {
		n.queue.Close()
	}
	n.format = format
	n.queue = NewQueue(bufferSize - bufferSize%format.FrameSize())
	n.mixer = newSoftMixer()
	n.controls = Controls{
		Gain: NewFloatControl("gain", softGainMinDB, softGainMaxDB, 0, n.mixer.setGainDB),
	}
	n.played.Store(0)
	return nil
}

func (n *Null) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.queue == nil {
		return ErrNotOpen
	}
	if n.running {
		return nil
	}
	n.running = true
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.pace(n.queue, n.format, n.stop, n.done)
	return nil
}

// pace consumes queued audio at the format's byte rate until stopped.
func (n *Null) pace(q *Queue, format audio.Format, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(nullTick)
	defer ticker.Stop()

	frameSize := format.FrameSize()
	rate := float64(format.ByteRate()) * n.speed
	scratch := make([]byte, q.Cap())
	last := time.Now()
	var budget float64

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			budget += now.Sub(last).Seconds() * rate
			last = now
			budget = min(budget, float64(len(scratch)))

			take := int(budget)
			take -= take % frameSize
			if take == 0 {
				continue
			}
			read, err := q.Read(scratch[:take])
			if err != nil {
				return
			}
			n.mixer.apply(scratch[:read], format.Channels)
			n.played.Add(int64(read))
			// Silence fills the gap on underrun, so time still advances
			budget -= float64(take)
		}
	}
}

func (n *Null) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	stop, done := n.stop, n.done
	n.mu.Unlock()

	close(stop)
	<-done
	return nil
}

func (n *Null) Flush() {
	if q := n.currentQueue(); q != nil {
		q.Flush()
	}
}

func (n *Null) Drain() {
	n.mu.Lock()
	q, running, format := n.queue, n.running, n.format
	n.mu.Unlock()
	if q == nil || !running {
		return
	}
	q.WaitEmpty(drainTimeout(q.Len(), format.ByteRate()))
}

func (n *Null) Close() error {
	n.Stop()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.queue != nil {
		n.queue.Close()
		n.queue = nil
	}
	n.controls = Controls{}
	return nil
}

func (n *Null) Write(p []byte) (int, error) {
	q := n.currentQueue()
	if q == nil {
		return 0, ErrClosed
	}
	return q.Write(p)
}

func (n *Null) BufferSize() int {
	if q := n.currentQueue(); q != nil {
		return q.Cap()
	}
	return 0
}

func (n *Null) Queued() int {
	if q := n.currentQueue(); q != nil {
		return q.Len()
	}
	return 0
}

func (n *Null) Controls() Controls {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.controls
}

// Played returns the number of queued bytes consumed since Open.
func (n *Null) Played() int64 {
	return n.played.Load()
}

func (n *Null) currentQueue() *Queue {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue
}

// drainTimeout bounds a drain to the queued audio's duration plus a second.
func drainTimeout(queued, byteRate int) time.Duration {
	d := time.Second
	if byteRate > 0 {
		d += time.Duration(float64(queued) / float64(byteRate) * float64(time.Second))
	}
	return d
}
