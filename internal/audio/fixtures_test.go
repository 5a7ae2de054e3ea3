package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes a 16-bit WAV file in dir. sample returns the value for a
// frame and channel.
func writeWAV(t *testing.T, dir string, sampleRate, channels, frames int, sample func(frame, ch int) int) string {
	t.Helper()

	path := filepath.Join(dir, "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, 0, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			data = append(data, sample(i, ch))
		}
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

// rampSample produces a distinct, reproducible value per frame and channel.
func rampSample(frame, ch int) int {
	return (frame*7+ch*1000)%20000 - 10000
}
