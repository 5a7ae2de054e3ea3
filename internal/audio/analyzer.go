package audio

import "math"

// FrameAnalysis holds level statistics for one channel snapshot
type FrameAnalysis struct {
	RMSLevel  float64
	PeakLevel float64
}

// AnalyzeFrame computes the RMS and absolute peak of normalized samples.
func AnalyzeFrame(samples []float64) FrameAnalysis {
	var analysis FrameAnalysis
	if len(samples) == 0 {
		return analysis
	}

	var sumSquares float64
	for _, sample := range samples {
		sumSquares += sample * sample
		if a := math.Abs(sample); a > analysis.PeakLevel {
			analysis.PeakLevel = a
		}
	}
	analysis.RMSLevel = math.Sqrt(sumSquares / float64(len(samples)))
	return analysis
}

// Decibels converts a linear level to dBFS, floored at -96 dB.
func Decibels(level float64) float64 {
	if level <= 0 {
		return -96
	}
	return max(20*math.Log10(level), -96)
}
