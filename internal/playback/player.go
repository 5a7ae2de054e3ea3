package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/output"
)

var (
	// ErrControlUnsupported is returned when the open device has no gain or
	// pan control, or no device is open.
	ErrControlUnsupported = errors.New("control not supported by output device")

	// ErrNotSeekable is returned when seeking a source that cannot be reopened.
	ErrNotSeekable = errors.New("source is not seekable")

	// ErrSeekTimeout is returned when a seek exceeds its iteration or time budget.
	ErrSeekTimeout = errors.New("seek did not converge")

	// ErrStaleDecoder is returned by Play when a previous decode loop
	// refuses to exit.
	ErrStaleDecoder = errors.New("previous decode loop did not exit")
)

// Stats are counters for the current session.
type Stats struct {
	Blocks    int64 // blocks decoded and written
	Underruns int64 // writes that found the device queue empty
	Consumed  int64 // decoded PCM bytes consumed
}

// Player decodes a Source and plays it through an output device while
// publishing per-channel sample buffers for visualisation.
//
// Locking: session is held by the decode loop for its whole run and by
// Open, Stop, Seek and Close while they touch the stream or device. mu
// guards the state and the fields below it. session is always taken before
// mu, and mu is never held while publishing events or blocking on the device.
type Player struct {
	cfg      Config
	id       string
	logger   *slog.Logger
	notifier Notifier

	session sync.Mutex

	mu        sync.Mutex
	state     State
	source    audio.Source
	stream    audio.PCMStream
	device    output.Device
	format    audio.Format
	store     *ChannelStore
	blockSize int
	loop      *session
	gain      *float64 // last normalized gain requested
	pan       *float64 // last pan requested

	// Stop arrived while Seeking; Seek stops instead of restarting
	stopPending bool

	wake chan struct{}

	consumed  atomic.Int64
	elapsed   atomic.Uint64 // float64 bits
	blocks    atomic.Int64
	underruns atomic.Int64
}

// New creates a Player in the Unknown state.
func New(cfg Config, opts ...Option) *Player {
	p := &Player{
		cfg:  cfg.withDefaults(),
		id:   uuid.NewString(),
		wake: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("player", p.id)
	return p
}

// ID returns the player's unique id, as used in its log records.
func (p *Player) ID() string {
	return p.id
}

// Subscribe registers a listener for lifecycle and control events.
func (p *Player) Subscribe(fn Listener) *Subscription {
	return p.notifier.Subscribe(fn)
}

// Unsubscribe removes a listener.
func (p *Player) Unsubscribe(sub *Subscription) {
	p.notifier.Unsubscribe(sub)
}

// Open prepares src for playback. It is ignored unless the player is
// Unknown or Stopped. On failure the state is unchanged.
func (p *Player) Open(src audio.Source) error {
	if !p.stateIn(Unknown, Stopped) {
		return nil
	}
	p.publish(EventOpening, 0, src.Name())

	p.session.Lock()
	format, opened, err := p.open(src)
	p.session.Unlock()
	if err != nil || !opened {
		return err
	}

	p.logger.Info("Opened", "source", src.Name(), "format", format.String(), "duration", format.Duration)
	p.publish(EventOpened, 0, src.Name(), format)
	return nil
}

// open does the work of Open. Must hold p.session.
func (p *Player) open(src audio.Source) (audio.Format, bool, error) {
	if !p.stateIn(Unknown, Stopped) {
		return audio.Format{}, false, nil
	}

	stream, err := src.Open()
	if err != nil {
		return audio.Format{}, false, fmt.Errorf("failed to open %s: %w", src.Name(), err)
	}

	format := stream.Format()
	frameSize := format.FrameSize()
	block := p.cfg.BlockSize - p.cfg.BlockSize%frameSize
	if block == 0 {
		stream.Close()
		return format, false, fmt.Errorf("%w: block size %d is smaller than one %d byte frame", audio.ErrUnsupportedFormat, p.cfg.BlockSize, frameSize)
	}

	device, err := p.outputDevice()
	if err != nil {
		stream.Close()
		return format, false, err
	}
	if err := device.Open(format, max(p.cfg.DeviceBuffer, block)); err != nil {
		stream.Close()
		return format, false, fmt.Errorf("failed to open output for %s: %w", format, err)
	}

	p.mu.Lock()
	p.source = src
	p.stream = stream
	p.device = device
	p.format = format
	p.blockSize = block
	p.store = NewChannelStore(block / frameSize)
	p.state = Opened
	gain, pan := p.gain, p.pan
	p.mu.Unlock()

	p.consumed.Store(0)
	p.setElapsed(0)
	p.blocks.Store(0)
	p.underruns.Store(0)

	// Carry control settings over to the new device
	controls := device.Controls()
	if gain != nil && controls.Gain != nil {
		controls.Gain.Set(gainToDB(*gain, controls.Gain.Min(), controls.Gain.Max()))
	}
	if pan != nil && controls.Pan != nil {
		controls.Pan.Set(*pan)
	}
	return format, true, nil
}

func (p *Player) outputDevice() (output.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.device != nil {
		return p.device, nil
	}
	d, err := output.New(p.cfg.Backend)
	if err != nil {
		return nil, err
	}
	p.device = d
	return d, nil
}

// Play starts playback of an Opened session. It is a no-op in any other
// state. If the previous decode loop is still winding down Play waits for
// it, cancelling it after HandoffCycles waits; ErrStaleDecoder is returned
// if it still has not exited one cycle later.
func (p *Player) Play() error {
	return p.start(Playing)
}

// start launches a decode loop for an Opened session in the Playing or
// Paused state. A loop started Paused holds its stream at the current
// position until Resume.
func (p *Player) start(initial State) error {
	p.mu.Lock()
	if p.state != Opened {
		p.mu.Unlock()
		return nil
	}
	prev := p.loop
	p.mu.Unlock()

	if prev != nil {
		if err := p.awaitHandoff(prev); err != nil {
			return err
		}
	}

	p.mu.Lock()
	if p.state != Opened {
		p.mu.Unlock()
		return nil
	}
	if initial == Playing {
		if err := p.device.Start(); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to start output: %w", err)
		}
	}
	s := &session{
		stream: p.stream,
		device: p.device,
		format: p.format,
		store:  p.store,
		block:  p.blockSize,
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.loop = s
	p.state = initial
	p.mu.Unlock()

	go p.run(s)

	p.publish(EventPlaying, 0)
	if initial == Paused {
		p.publish(EventPaused, 0)
	}
	return nil
}

// awaitHandoff waits for a previous loop to exit.
func (p *Player) awaitHandoff(prev *session) error {
	for cycles := 1; ; cycles++ {
		select {
		case <-prev.done:
			return nil
		case <-time.After(p.cfg.HandoffWait):
		}

		switch {
		case cycles == p.cfg.HandoffCycles+1:
			p.logger.Warn("Previous decode loop still running, cancelling it", "cycles", cycles)
			prev.stop()
			prev.device.Flush()
		case cycles > p.cfg.HandoffCycles+1:
			p.logger.Error("Previous decode loop did not exit", "cycles", cycles)
			return ErrStaleDecoder
		default:
			p.logger.Debug("Waiting for previous decode loop", "cycles", cycles)
		}
	}
}

// Pause suspends playback. Queued audio is discarded.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.state != Playing {
		p.mu.Unlock()
		return nil
	}
	p.state = Paused
	device := p.device
	p.mu.Unlock()

	device.Flush()
	if err := device.Stop(); err != nil {
		p.logger.Warn("Failed to stop output", "error", err)
	}
	p.publish(EventPaused, 0)
	return nil
}

// Resume continues a paused session.
func (p *Player) Resume() error {
	p.mu.Lock()
	if p.state != Paused {
		p.mu.Unlock()
		return nil
	}
	if err := p.device.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to restart output: %w", err)
	}
	p.state = Playing
	p.mu.Unlock()

	p.signal()
	p.publish(EventResumed, 0)
	return nil
}

// Stop ends an active session and releases the stream and device. It waits
// for the decode loop to finish its current block. During a Seek it returns
// at once and the seek stops the player instead of resuming playback.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.state == Seeking {
		p.stopPending = true
		p.mu.Unlock()
		p.logger.Debug("Stop requested while seeking")
		return nil
	}
	if !p.state.Active() {
		p.mu.Unlock()
		return nil
	}
	p.state = Stopped
	loop, device := p.loop, p.device
	p.mu.Unlock()

	p.interrupt(loop, device)

	p.session.Lock()
	p.release()
	p.session.Unlock()

	p.logger.Info("Stopped", "elapsed", p.Elapsed())
	p.publish(EventStopped, 0)
	return nil
}

// Close stops playback, releases an opened but unplayed session and removes
// all listeners. It is safe to call from any goroutine, including a listener.
func (p *Player) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}

	p.session.Lock()
	p.mu.Lock()
	opened := p.state == Opened
	if opened {
		p.state = Stopped
	}
	p.mu.Unlock()
	if opened {
		p.release()
	}
	p.session.Unlock()

	if opened {
		p.publish(EventStopped, 0)
	}
	p.notifier.Clear()
	return nil
}

// interrupt makes a running loop give up its session promptly: the device
// is flushed so a blocked write returns, and the loop is cancelled and woken.
func (p *Player) interrupt(loop *session, device output.Device) {
	device.Flush()
	if err := device.Stop(); err != nil {
		p.logger.Warn("Failed to stop output", "error", err)
	}
	if loop != nil {
		loop.stop()
	}
	p.signal()
}

// release closes the stream and device. Must hold p.session.
func (p *Player) release() {
	p.mu.Lock()
	stream, device := p.stream, p.device
	p.stream = nil
	p.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			p.logger.Warn("Failed to close stream", "error", err)
		}
	}
	if device != nil {
		if err := device.Close(); err != nil {
			p.logger.Warn("Failed to close output", "error", err)
		}
	}
}

// signal wakes a waiting loop without blocking.
func (p *Player) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Player) stateIn(states ...State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range states {
		if p.state == s {
			return true
		}
	}
	return false
}

// transition moves to next if the current state is one of from.
func (p *Player) transition(next State, from ...State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range from {
		if p.state == s {
			p.state = next
			return true
		}
	}
	return false
}

func (p *Player) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Player) publish(kind EventKind, value float64, extra ...any) {
	position := p.consumed.Load()
	if kind == EventOpening {
		position = -1
	}
	p.notifier.Publish(Event{Kind: kind, Position: position, Value: value, Extra: extra})
}

// Status returns the current lifecycle state.
func (p *Player) Status() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Elapsed returns the playback position in seconds, derived from the bytes
// consumed by the decode loop.
func (p *Player) Elapsed() float64 {
	return math.Float64frombits(p.elapsed.Load())
}

func (p *Player) setElapsed(seconds float64) {
	p.elapsed.Store(math.Float64bits(seconds))
}

// Format returns the format of the open stream.
func (p *Player) Format() audio.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

// Stats returns the session counters.
func (p *Player) Stats() Stats {
	return Stats{
		Blocks:    p.blocks.Load(),
		Underruns: p.underruns.Load(),
		Consumed:  p.consumed.Load(),
	}
}

// ChannelSize returns the number of samples per channel buffer, 0 before
// the first Open.
func (p *Player) ChannelSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.store == nil {
		return 0
	}
	return p.store.Size()
}

// Channel returns a snapshot of one channel's latest block, or nil before
// the first Open.
func (p *Player) Channel(ch Channel) []float64 {
	if b := p.ChannelBuffer(ch); b != nil {
		return b.Snapshot()
	}
	return nil
}

// ChannelBuffer returns the live buffer for ch so render loops can reuse
// their own destination slice. It changes on every Open.
func (p *Player) ChannelBuffer(ch Channel) *audio.ChannelBuffer {
	p.mu.Lock()
	store := p.store
	p.mu.Unlock()
	if store == nil {
		return nil
	}
	return store.Buffer(ch)
}
