package playback

import "github.com/linuxmatters/jiveplay/internal/audio"

// Channel selects one of the store's buffers.
type Channel int

const (
	ChannelLeft Channel = iota
	ChannelRight
	ChannelMono
	ChannelMixed
)

func (c Channel) String() string {
	switch c {
	case ChannelLeft:
		return "left"
	case ChannelRight:
		return "right"
	case ChannelMono:
		return "mono"
	case ChannelMixed:
		return "mixed"
	}
	return "invalid"
}

// ChannelStore holds the per-channel view of the latest decoded block.
// Each buffer is locked independently; a reader of one buffer sees a whole
// block, but two buffers read in sequence may come from different blocks.
type ChannelStore struct {
	Left  *audio.ChannelBuffer
	Right *audio.ChannelBuffer
	Mono  *audio.ChannelBuffer
	Mixed *audio.ChannelBuffer

	// producer-only scratch for the mixed channel
	sum []float64
}

// NewChannelStore creates four zeroed buffers of size samples.
func NewChannelStore(size int) *ChannelStore {
	return &ChannelStore{
		Left:  audio.NewChannelBuffer(size),
		Right: audio.NewChannelBuffer(size),
		Mono:  audio.NewChannelBuffer(size),
		Mixed: audio.NewChannelBuffer(size),
		sum:   make([]float64, size),
	}
}

// Size returns the number of samples per buffer.
func (s *ChannelStore) Size() int {
	return s.Left.Len()
}

// Buffer returns the buffer for ch, or nil for an unknown channel.
func (s *ChannelStore) Buffer(ch Channel) *audio.ChannelBuffer {
	switch ch {
	case ChannelLeft:
		return s.Left
	case ChannelRight:
		return s.Right
	case ChannelMono:
		return s.Mono
	case ChannelMixed:
		return s.Mixed
	}
	return nil
}

// Update refreshes all four buffers from one block. mixed is left+right;
// mono is their average for stereo input and left for mono input. It must
// only be called from the decode loop. It returns false, changing nothing,
// when either input has the wrong length.
func (s *ChannelStore) Update(left, right []float64, channels int) bool {
	if len(left) != len(s.sum) || len(right) != len(s.sum) {
		return false
	}

	for i := range s.sum {
		s.sum[i] = left[i] + right[i]
	}

	s.Left.Replace(left)
	s.Right.Replace(right)
	if channels == 1 {
		s.Mono.Replace(left)
	} else {
		s.Mono.Mix(left, right)
	}
	s.Mixed.Replace(s.sum)
	return true
}
