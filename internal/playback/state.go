package playback

// State is the lifecycle state of a Player.
type State int

const (
	Unknown State = iota
	Opened
	Playing
	Paused
	Stopped
	Seeking
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Opened:
		return "opened"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Seeking:
		return "seeking"
	}
	return "invalid"
}

// Active reports whether a decode session is running or suspended.
func (s State) Active() bool {
	return s == Playing || s == Paused
}
