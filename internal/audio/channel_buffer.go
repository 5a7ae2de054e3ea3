package audio

import "sync"

// ChannelBuffer holds one channel's worth of samples for sharing decoded
// audio between the playback loop and a visualiser.
//
// Design:
// - Fixed capacity, set at creation and never changed
// - Single producer replaces the whole contents once per decoded block
// - Any number of consumers take snapshot copies at their own cadence
// - Consumers never wait for new data; they always get the latest block
// - Each buffer has its own lock; there is no lock across buffers
type ChannelBuffer struct {
	mu      sync.Mutex
	samples []float64
}

// NewChannelBuffer creates a zeroed buffer holding size samples.
func NewChannelBuffer(size int) *ChannelBuffer {
	if size < 0 {
		size = 0
	}
	return &ChannelBuffer{
		samples: make([]float64, size),
	}
}

// Len returns the fixed capacity of the buffer.
func (b *ChannelBuffer) Len() int {
	// samples is never reassigned after creation
	return len(b.samples)
}

// Replace copies values into the buffer. It is a no-op returning false
// when len(values) differs from the buffer capacity.
func (b *ChannelBuffer) Replace(values []float64) bool {
	if len(values) != len(b.samples) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.samples, values)
	return true
}

// Snapshot returns a newly allocated copy of the current contents.
func (b *ChannelBuffer) Snapshot() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]float64, len(b.samples))
	copy(result, b.samples)
	return result
}

// SnapshotInto copies the current contents into dst, which must hold at
// least Len samples, and returns the number of samples copied.
// Render loops use it to avoid an allocation per frame.
func (b *ChannelBuffer) SnapshotInto(dst []float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copy(dst, b.samples)
}

// Mix stores the element-wise average of left and right. It is a no-op
// returning false unless both inputs match the buffer capacity.
func (b *ChannelBuffer) Mix(left, right []float64) bool {
	if len(left) != len(b.samples) || len(right) != len(b.samples) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.samples {
		b.samples[i] = (left[i] + right[i]) / 2.0
	}
	return true
}
