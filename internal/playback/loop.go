package playback

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/output"
)

// session is one run of the decode loop.
type session struct {
	stream audio.PCMStream
	device output.Device
	format audio.Format
	store  *ChannelStore
	block  int

	cancel chan struct{}
	once   sync.Once
	done   chan struct{}
}

// stop cancels the loop. Safe to call more than once.
func (s *session) stop() {
	s.once.Do(func() { close(s.cancel) })
}

func (s *session) cancelled() bool {
	select {
	case <-s.cancel:
		return true
	default:
		return false
	}
}

// run is the decode goroutine. It holds the session lock until it exits,
// then publishes any final events once done is closed, so a listener may
// immediately Open and Play again.
func (p *Player) run(s *session) {
	p.session.Lock()
	final := p.decode(s)
	p.session.Unlock()
	close(s.done)

	for _, kind := range final {
		p.publish(kind, 0)
	}
}

// decode reads, publishes and writes blocks until the stream ends, fails
// or the loop is cancelled. It returns the events to publish on exit.
func (p *Player) decode(s *session) []EventKind {
	block := make([]byte, s.block)
	frames := s.store.Size()
	left := make([]float64, frames)
	right := make([]float64, frames)
	frameSize := s.format.FrameSize()

	primed := false
	eof := false
	for {
		if s.cancelled() {
			return nil
		}

		switch p.Status() {
		case Playing:
		case Paused, Opened:
			p.waitWake(s)
			primed = false
			continue
		default:
			return nil
		}

		if eof {
			if !p.transition(Stopped, Playing) {
				continue
			}
			s.device.Drain()
			p.release()
			p.logger.Info("End of media", "elapsed", p.Elapsed(), "underruns", p.underruns.Load())
			return []EventKind{EventEndOfMedia, EventStopped}
		}

		n, err := io.ReadFull(s.stream, block)
		n -= n % frameSize
		if s.cancelled() {
			return nil
		}

		if n > 0 {
			audio.DeinterleaveS16(block[:n], s.format.Channels, left, right)
			s.store.Update(left, right, s.format.Channels)
			consumed := p.consumed.Add(int64(n))
			p.setElapsed(s.format.Seconds(consumed))
			p.blocks.Add(1)

			if primed && s.device.Queued() == 0 {
				p.underruns.Add(1)
				p.logger.Debug("Buffer underrun", "queued", 0, "buffer", s.device.BufferSize())
			}
			primed = true

			if _, werr := s.device.Write(block[:n]); werr != nil && !s.cancelled() {
				return p.fail(s, werr)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			eof = true
			continue
		default:
			return p.fail(s, err)
		}

		if p.cfg.ThreadSleep > 0 {
			select {
			case <-s.cancel:
			case <-time.After(p.cfg.ThreadSleep):
			}
		}
	}
}

// waitWake blocks until Resume/Stop/Seek/Close signal the loop or the pause
// poll interval elapses.
func (p *Player) waitWake(s *session) {
	timer := time.NewTimer(p.cfg.PausePoll)
	defer timer.Stop()

	select {
	case <-s.cancel:
	case <-p.wake:
	case <-timer.C:
	}
}

// fail ends the session after a mid-stream error, unless a concurrent
// Stop or Seek already owns it.
func (p *Player) fail(s *session, err error) []EventKind {
	if !p.transition(Stopped, Playing, Paused) {
		return nil
	}
	p.logger.Error("Playback failed", "error", err, "consumed", p.consumed.Load())
	if serr := s.device.Stop(); serr != nil {
		p.logger.Warn("Failed to stop output", "error", serr)
	}
	p.release()
	return []EventKind{EventStopped}
}
