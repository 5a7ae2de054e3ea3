package audio

import (
	"fmt"
	"math"

	"github.com/argusdusty/gofft"
)

// ApplyHanning applies a Hanning window to the input data
func ApplyHanning(data []float64) []float64 {
	windowed := make([]float64, len(data))
	n := len(data)
	if n < 2 {
		copy(windowed, data)
		return windowed
	}
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * window
	}
	return windowed
}

// NextPowerOfTwo returns the smallest power of two >= n (minimum 2).
func NextPowerOfTwo(n int) int {
	size := 2
	for size < n {
		size <<= 1
	}
	return size
}

// Magnitudes returns |X[k]| for the non-negative frequency bins 0..N/2.
func Magnitudes(coeffs []complex128) []float64 {
	mags := make([]float64, len(coeffs)/2+1)
	for i := range mags {
		if i >= len(coeffs) {
			break
		}
		c := coeffs[i]
		mags[i] = math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
	}
	return mags
}

// LinearAverages groups spectrum into len(dst) equal-width bands and stores
// the mean magnitude of each. Bins left over by integer division are
// folded into the last band.
func LinearAverages(spectrum []float64, dst []float64) {
	n := len(dst)
	if n == 0 {
		return
	}
	width := len(spectrum) / n
	if width == 0 {
		clear(dst)
		copy(dst, spectrum)
		return
	}
	for band := 0; band < n; band++ {
		start := band * width
		end := start + width
		if band == n-1 {
			end = len(spectrum)
		}
		var sum float64
		for _, v := range spectrum[start:end] {
			sum += v
		}
		dst[band] = sum / float64(end-start)
	}
}

// BinFFT bins FFT coefficients into len(result) bars normalized to roughly
// 0.0-1.0. Only the lower 3/4 of the positive spectrum is used, where most
// musical content sits.
func BinFFT(coeffs []complex128, sensitivity, baseScale float64, result []float64) {
	mags := Magnitudes(coeffs)
	maxFreqBin := (len(coeffs) / 2 * 3) / 4
	if maxFreqBin < len(result) {
		maxFreqBin = len(mags)
	}
	LinearAverages(mags[:maxFreqBin], result)

	for i := range result {
		scaled := result[i] * baseScale * sensitivity

		// Noise gate before log scaling
		if scaled < 0.01 {
			result[i] = 0
			continue
		}
		result[i] = math.Log10(1 + scaled*9)
	}
}

// DefaultBaseScale maps raw band magnitudes of a full-scale signal into the
// normalized bar range.
const DefaultBaseScale = 0.0075

// Processor computes spectra of fixed-size windows of channel samples.
// It is not safe for concurrent use.
type Processor struct {
	size int
	buf  []complex128
}

// NewProcessor creates a processor for windows of size samples. size must be
// a power of two.
func NewProcessor(size int) (*Processor, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("FFT size %d is not a power of two", size)
	}
	if err := gofft.Prepare(size); err != nil {
		return nil, fmt.Errorf("failed to prepare FFT: %w", err)
	}
	return &Processor{
		size: size,
		buf:  make([]complex128, size),
	}, nil
}

// Size returns the FFT window size.
func (p *Processor) Size() int {
	return p.size
}

// ProcessChunk windows samples (zero-padded or truncated to the window size)
// and returns their FFT coefficients. The returned slice is reused by the
// next call.
func (p *Processor) ProcessChunk(samples []float64) ([]complex128, error) {
	chunk := make([]float64, p.size)
	copy(chunk, samples)
	windowed := ApplyHanning(chunk)

	for i, v := range windowed {
		p.buf[i] = complex(v, 0)
	}
	if err := gofft.FFT(p.buf); err != nil {
		return nil, fmt.Errorf("FFT failed: %w", err)
	}
	return p.buf, nil
}

// Bands runs ProcessChunk and bins the result into len(dst) normalized bars.
func (p *Processor) Bands(samples []float64, sensitivity, baseScale float64, dst []float64) error {
	coeffs, err := p.ProcessChunk(samples)
	if err != nil {
		return err
	}
	BinFFT(coeffs, sensitivity, baseScale, dst)
	return nil
}
