package playback

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/output"
)

// writeSineWAV writes a 16-bit WAV of a 440 Hz tone.
func writeSineWAV(t *testing.T, seconds float64, sampleRate, channels int) string {
	t.Helper()
	return writeWAV(t, seconds, sampleRate, channels, func(i, ch int) int {
		return int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	})
}

func writeWAV(t *testing.T, seconds float64, sampleRate, channels int, sample func(i, ch int) int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	frames := int(seconds * float64(sampleRate))
	data := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			data = append(data, sample(i, ch))
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

// guardDevice is a wall-clock paced device that records how many goroutines
// are inside Write at once.
type guardDevice struct {
	*output.Null
	inflight    atomic.Int32
	maxInflight atomic.Int32
	writes      atomic.Int64
	withPan     bool
	pan         *output.FloatControl
}

func newGuardDevice(speed float64) *guardDevice {
	return &guardDevice{Null: output.NewNull(output.WithSpeed(speed))}
}

func (g *guardDevice) Write(p []byte) (int, error) {
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	for {
		m := g.maxInflight.Load()
		if n <= m || g.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}
	g.writes.Add(1)
	return g.Null.Write(p)
}

func (g *guardDevice) Open(format audio.Format, bufferSize int) error {
	if err := g.Null.Open(format, bufferSize); err != nil {
		return err
	}
	if g.withPan {
		g.pan = output.NewFloatControl("pan", -1, 1, 0, nil)
	}
	return nil
}

func (g *guardDevice) Controls() output.Controls {
	c := g.Null.Controls()
	if g.withPan && c.Gain != nil {
		c.Pan = g.pan
	}
	return c
}

// brokenDevice fails to open.
type brokenDevice struct {
	output.Device
}

func (brokenDevice) Open(audio.Format, int) error {
	return output.ErrDeviceUnavailable
}

// failingSource yields streams whose reads fail after a number of calls.
type failingSource struct {
	audio.Source
	reads int
}

var errCorrupt = errors.New("corrupt frame")

func (s failingSource) Open() (audio.PCMStream, error) {
	stream, err := s.Source.Open()
	if err != nil {
		return nil, err
	}
	return &failingStream{PCMStream: stream, left: s.reads}, nil
}

type failingStream struct {
	audio.PCMStream
	left int
}

func (s *failingStream) Read(p []byte) (int, error) {
	if s.left == 0 {
		return 0, errCorrupt
	}
	s.left--
	return s.PCMStream.Read(p)
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// indexOf returns the position of kind in the recorded sequence, or -1.
func (r *recorder) indexOf(kind EventKind) int {
	return slices.Index(r.kinds(), kind)
}

// waitFor polls cond until it holds or timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v waiting for %s", timeout, what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// testConfig keeps hand-off and pause polling short so failures surface fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend = "null"
	cfg.PausePoll = 100 * time.Millisecond
	cfg.HandoffWait = 50 * time.Millisecond
	return cfg
}

// openPlayer creates a player on a guard device and opens path.
func openPlayer(t *testing.T, path string, speed float64) (*Player, *guardDevice, *recorder) {
	t.Helper()

	device := newGuardDevice(speed)
	p := New(testConfig(), WithDevice(device))
	rec := &recorder{}
	p.Subscribe(rec.listen)

	if err := p.Open(audio.NewFileSource(path)); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, device, rec
}

// slowSkipSource yields streams that skip at most one mono frame per call,
// sleeping delay first.
type slowSkipSource struct {
	audio.Source
	delay time.Duration
}

func (s slowSkipSource) Open() (audio.PCMStream, error) {
	stream, err := s.Source.Open()
	if err != nil {
		return nil, err
	}
	return &slowSkipStream{PCMStream: stream, delay: s.delay}, nil
}

type slowSkipStream struct {
	audio.PCMStream
	delay time.Duration
}

func (s *slowSkipStream) Skip(n int64) (int64, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.PCMStream.Skip(min(n, 2))
}

// starvedDevice always reports an empty queue.
type starvedDevice struct {
	*guardDevice
}

func (starvedDevice) Queued() int {
	return 0
}
