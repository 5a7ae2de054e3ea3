package playback

import (
	"errors"
	"fmt"
	"time"
)

// Seek moves playback to offset bytes of decoded PCM from the start and
// returns the bytes actually skipped, which is less than offset when the
// stream ends first. It is ignored unless the player is Playing or Paused,
// and restores that state afterwards.
//
// The stream is reopened and skipped forward until within SkipTolerance of
// the target. When the skip does not converge within MaxSkipIterations or
// SeekTimeout, playback continues from the position reached and
// ErrSeekTimeout is returned with the bytes skipped. If the source cannot be
// reopened the player is Stopped. A Stop issued while seeking takes effect
// once the stream has been repositioned.
func (p *Player) Seek(offset int64) (int64, error) {
	p.mu.Lock()
	prev := p.state
	if !prev.Active() {
		p.mu.Unlock()
		return 0, nil
	}
	if !p.source.Seekable() {
		p.mu.Unlock()
		return 0, ErrNotSeekable
	}
	p.state = Seeking
	loop, device := p.loop, p.device
	p.mu.Unlock()

	p.publish(EventSeeking, float64(offset))
	p.interrupt(loop, device)

	p.session.Lock()
	skipped, err := p.reposition(offset)
	if err != nil && !errors.Is(err, ErrSeekTimeout) {
		p.mu.Lock()
		p.state = Stopped
		p.stopPending = false
		p.mu.Unlock()
		p.release()
		p.session.Unlock()

		p.logger.Error("Seek failed", "offset", offset, "error", err)
		p.publish(EventStopped, 0)
		return 0, err
	}

	p.mu.Lock()
	stopped := p.stopPending
	p.stopPending = false
	if stopped {
		p.state = Stopped
	} else {
		p.state = Opened
	}
	p.mu.Unlock()
	if stopped {
		p.release()
	}
	p.session.Unlock()

	p.logger.Debug("Seeked", "offset", offset, "skipped", skipped, "elapsed", p.Elapsed())
	p.publish(EventSeeked, float64(skipped))
	if stopped {
		p.logger.Info("Stopped", "elapsed", p.Elapsed())
		p.publish(EventStopped, 0)
		return skipped, err
	}
	if err != nil {
		p.logger.Warn("Seek stopped short", "offset", offset, "skipped", skipped, "error", err)
	}

	if serr := p.start(prev); serr != nil {
		return skipped, serr
	}
	return skipped, err
}

// reposition reopens the source and skips to offset. Must hold p.session.
func (p *Player) reposition(offset int64) (int64, error) {
	p.mu.Lock()
	src, old, format := p.source, p.stream, p.format
	p.mu.Unlock()

	if old != nil {
		old.Close()
	}
	stream, err := src.Open()
	if err != nil {
		p.mu.Lock()
		p.stream = nil
		p.mu.Unlock()
		return 0, fmt.Errorf("failed to reopen %s: %w", src.Name(), err)
	}
	p.mu.Lock()
	p.stream = stream
	p.mu.Unlock()

	// Skip whole frames only so channels stay aligned
	target := max(offset, 0)
	if fs := int64(format.FrameSize()); fs > 0 {
		target -= target % fs
	}

	deadline := time.Now().Add(p.cfg.SeekTimeout)
	var skipped int64
	for i := 0; target-skipped > p.cfg.SkipTolerance; i++ {
		if i >= p.cfg.MaxSkipIterations || time.Now().After(deadline) {
			err = fmt.Errorf("%w: skipped %d of %d bytes after %d iterations", ErrSeekTimeout, skipped, target, i)
			break
		}
		n, serr := stream.Skip(target - skipped)
		if serr != nil {
			return skipped, fmt.Errorf("failed to skip: %w", serr)
		}
		if n == 0 {
			break
		}
		skipped += n
	}

	p.consumed.Store(skipped)
	p.setElapsed(format.Seconds(skipped))
	return skipped, err
}
