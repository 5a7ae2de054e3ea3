package playback

import "sync"

// EventKind identifies a lifecycle or control change.
type EventKind int

const (
	EventOpening EventKind = iota
	EventOpened
	EventPlaying
	EventPaused
	EventResumed
	EventStopped
	EventSeeking
	EventSeeked
	EventEndOfMedia
	EventPanChanged
	EventGainChanged
)

var eventNames = [...]string{
	EventOpening:     "opening",
	EventOpened:      "opened",
	EventPlaying:     "playing",
	EventPaused:      "paused",
	EventResumed:     "resumed",
	EventStopped:     "stopped",
	EventSeeking:     "seeking",
	EventSeeked:      "seeked",
	EventEndOfMedia:  "end-of-media",
	EventPanChanged:  "pan-changed",
	EventGainChanged: "gain-changed",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "invalid"
}

// Event describes something that happened to a Player.
type Event struct {
	Kind     EventKind
	Position int64   // decoded PCM bytes consumed, -1 when no stream is open
	Value    float64 // kind specific: seek bytes, gain, pan
	Extra    []any
}

// Listener receives events synchronously on the goroutine that caused them,
// which may be the decode loop. Listeners must return quickly.
type Listener func(Event)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	fn Listener
}

// Notifier fans events out to listeners in subscription order.
type Notifier struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Subscribe registers fn. Each call returns a distinct handle, even for
// the same function.
func (n *Notifier) Subscribe(fn Listener) *Subscription {
	sub := &Subscription{fn: fn}
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()
	return sub
}

// Unsubscribe removes sub. Unknown or repeated handles are ignored.
func (n *Notifier) Unsubscribe(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Publish invokes every listener with e. The list is copied first, so a
// listener may subscribe or unsubscribe while being notified.
func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	subs := make([]*Subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Clear removes all listeners.
func (n *Notifier) Clear() {
	n.mu.Lock()
	n.subs = nil
	n.mu.Unlock()
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
