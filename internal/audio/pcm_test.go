package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func s16le(values ...int16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

func TestDeinterleaveS16(t *testing.T) {
	testCases := []struct {
		name      string
		block     []byte
		channels  int
		size      int
		wantLeft  []float64
		wantRight []float64
		wantN     int
	}{
		{
			name:      "stereo",
			block:     s16le(16384, -16384, -32768, 0),
			channels:  2,
			size:      2,
			wantLeft:  []float64{0.5, -1},
			wantRight: []float64{-0.5, 0},
			wantN:     2,
		},
		{
			name:      "mono mirrors right",
			block:     s16le(8192, -8192),
			channels:  1,
			size:      2,
			wantLeft:  []float64{0.25, -0.25},
			wantRight: []float64{0.25, -0.25},
			wantN:     2,
		},
		{
			name:      "short block is zero padded",
			block:     s16le(16384, 16384),
			channels:  2,
			size:      3,
			wantLeft:  []float64{0.5, 0, 0},
			wantRight: []float64{0.5, 0, 0},
			wantN:     1,
		},
		{
			name:      "partial trailing frame ignored",
			block:     append(s16le(16384, 16384), 0x01),
			channels:  2,
			size:      1,
			wantLeft:  []float64{0.5},
			wantRight: []float64{0.5},
			wantN:     1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			left := make([]float64, tc.size)
			right := make([]float64, tc.size)
			for i := range left {
				left[i], right[i] = 9, 9
			}

			n := DeinterleaveS16(tc.block, tc.channels, left, right)
			if n != tc.wantN {
				t.Errorf("frames = %d, want %d", n, tc.wantN)
			}
			for i := range tc.wantLeft {
				if left[i] != tc.wantLeft[i] || right[i] != tc.wantRight[i] {
					t.Errorf("frame %d = (%v, %v), want (%v, %v)", i, left[i], right[i], tc.wantLeft[i], tc.wantRight[i])
				}
			}
		})
	}
}

func TestPutS16_Clamps(t *testing.T) {
	out := putS16(nil, 40000)
	out = putS16(out, -40000)
	out = putS16(out, 123)

	want := s16le(32767, -32768, 123)
	if string(out) != string(want) {
		t.Errorf("putS16 = %v, want %v", out, want)
	}
}

func TestScaleTo16(t *testing.T) {
	testCases := []struct {
		sample, depth, want int
	}{
		{sample: 1 << 23, depth: 24, want: 1 << 15},
		{sample: -(1 << 23), depth: 24, want: -(1 << 15)},
		{sample: 100, depth: 16, want: 100},
		{sample: -128, depth: 8, want: -32768},
		{sample: 1 << 19, depth: 20, want: 1 << 15},
	}
	for _, tc := range testCases {
		if got := scaleTo16(tc.sample, tc.depth); got != tc.want {
			t.Errorf("scaleTo16(%d, %d) = %d, want %d", tc.sample, tc.depth, got, tc.want)
		}
	}
}

// TestPCMBuffer_ReadAcrossChunks verifies that reads spanning chunk
// boundaries and a terminal error behave like an io.Reader.
func TestPCMBuffer_ReadAcrossChunks(t *testing.T) {
	chunks := [][]byte{{1, 2, 3}, {4, 5}, {6}}
	var b pcmBuffer
	b.fill = func() ([]byte, error) {
		if len(chunks) == 0 {
			return nil, io.EOF
		}
		c := chunks[0]
		chunks = chunks[1:]
		return c, nil
	}

	data, err := io.ReadAll(readerFunc(b.read))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != string([]byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("data = %v", data)
	}

	if n, err := b.skip(10); n != 0 || err != nil {
		t.Errorf("skip at EOF = %d, %v; want 0, nil", n, err)
	}
}

func TestPCMBuffer_ErrorPropagates(t *testing.T) {
	boom := errors.New("corrupt frame")
	var b pcmBuffer
	b.fill = func() ([]byte, error) { return []byte{1}, boom }

	p := make([]byte, 4)
	if n, err := b.read(p); n != 1 || err != nil {
		t.Fatalf("first read = %d, %v; want buffered byte", n, err)
	}
	if _, err := b.read(p); !errors.Is(err, boom) {
		t.Errorf("second read error = %v, want %v", err, boom)
	}
	if _, err := b.skip(4); !errors.Is(err, boom) {
		t.Errorf("skip error = %v, want %v", err, boom)
	}
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
