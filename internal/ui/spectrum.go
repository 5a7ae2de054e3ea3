package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/jiveplay/internal/cli"
)

var spectrumBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderSpectrum draws normalized bars two rows tall. Each bar is stretched
// across width/len(bars) cells; bars are not rescaled, so quiet passages look
// quiet.
func renderSpectrum(bars []float64, width int) string {
	if len(bars) == 0 || width <= 0 {
		return ""
	}

	cells := make([]float64, width)
	for i := range cells {
		v := bars[i*len(bars)/width]
		cells[i] = min(max(v, 0), 1)
	}

	var top, bottom strings.Builder
	for _, v := range cells {
		style := lipgloss.NewStyle().Foreground(cli.SpectrumGradient[scaleIndex(v, len(cli.SpectrumGradient))])

		// Upper row shows the portion above half height
		if v > 0.5 {
			top.WriteString(style.Render(string(spectrumBlocks[scaleIndex((v-0.5)*2, len(spectrumBlocks))])))
		} else {
			top.WriteString(" ")
		}

		switch {
		case v >= 0.5:
			bottom.WriteString(style.Render(string(spectrumBlocks[len(spectrumBlocks)-1])))
		case v > 0:
			bottom.WriteString(style.Render(string(spectrumBlocks[scaleIndex(v*2, len(spectrumBlocks))])))
		default:
			bottom.WriteString(" ")
		}
	}

	return top.String() + "\n" + bottom.String()
}

// scaleIndex maps v in [0, 1] to an index into a table of n entries.
func scaleIndex(v float64, n int) int {
	return min(max(int(v*float64(n-1)), 0), n-1)
}
