package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/linuxmatters/jiveplay/internal/config"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Spectrum draws frequency bars and the elapsed playback clock
type Spectrum struct {
	img      *image.RGBA
	width    int
	height   int
	numBars  int
	barWidth int
	startX   int
	baseY    int

	// Pre-computed values
	maxBarHeight  int
	alphaTable    []uint8    // alpha by distance from the base
	barColorTable [][3]uint8 // bar colour at each alpha level
	face          font.Face
	textColor     *image.Uniform
}

// NewSpectrum creates a renderer for numBars bars on a width x height frame.
func NewSpectrum(width, height, numBars int) *Spectrum {
	width = max(width, 1)
	height = max(height, 1)
	numBars = max(numBars, 1)

	barWidth := max((width-(numBars-1)*config.BarGap)/numBars, 1)
	totalWidth := numBars*barWidth + (numBars-1)*config.BarGap
	face := basicfont.Face7x13

	// Bars start below the clock line
	top := config.TextInset + face.Metrics().Height.Ceil()
	maxBarHeight := max(height-top, 1)

	// Fade from full brightness at the base to half at the tip
	alphaTable := make([]uint8, maxBarHeight)
	for i := range alphaTable {
		alphaTable[i] = uint8((1.0 - float64(i)/float64(maxBarHeight)*0.5) * 255)
	}

	barColorTable := make([][3]uint8, 256)
	for alpha := range barColorTable {
		factor := float64(alpha) / 255.0
		barColorTable[alpha][0] = uint8(float64(config.BarColorR) * factor)
		barColorTable[alpha][1] = uint8(float64(config.BarColorG) * factor)
		barColorTable[alpha][2] = uint8(float64(config.BarColorB) * factor)
	}

	return &Spectrum{
		img:           image.NewRGBA(image.Rect(0, 0, width, height)),
		width:         width,
		height:        height,
		numBars:       numBars,
		barWidth:      barWidth,
		startX:        max((width-totalWidth)/2, 0),
		baseY:         height,
		maxBarHeight:  maxBarHeight,
		alphaTable:    alphaTable,
		barColorTable: barColorTable,
		face:          face,
		textColor:     image.NewUniform(color.RGBA{R: config.TextColorR, G: config.TextColorG, B: config.TextColorB, A: 255}),
	}
}

// Draw renders bars, each in [0, 1], and the elapsed clock. Bars beyond
// the renderer's count are ignored; missing bars are drawn empty.
func (s *Spectrum) Draw(bars []float64, elapsed time.Duration) {
	s.clear()
	for i := 0; i < s.numBars && i < len(bars); i++ {
		s.drawBar(i, bars[i])
	}
	s.drawClock(FormatClock(elapsed))
}

func (s *Spectrum) clear() {
	pix := s.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 0, 0, 0, 255
	}
}

func (s *Spectrum) drawBar(i int, v float64) {
	barHeight := int(min(max(v, 0), 1) * float64(s.maxBarHeight))
	if barHeight <= 0 {
		return
	}
	x := s.startX + i*(s.barWidth+config.BarGap)
	if x+s.barWidth > s.width {
		return
	}

	// One scanline pattern per row, copied across the bar width
	pattern := make([]byte, s.barWidth*4)
	for h := 0; h < barHeight; h++ {
		y := s.baseY - 1 - h
		alphaIndex := h * s.maxBarHeight / barHeight
		if alphaIndex >= s.maxBarHeight {
			alphaIndex = s.maxBarHeight - 1
		}
		c := &s.barColorTable[s.alphaTable[alphaIndex]]
		for px := 0; px < s.barWidth; px++ {
			o := px * 4
			pattern[o], pattern[o+1], pattern[o+2], pattern[o+3] = c[0], c[1], c[2], 255
		}
		offset := y*s.img.Stride + x*4
		copy(s.img.Pix[offset:offset+len(pattern)], pattern)
	}
}

func (s *Spectrum) drawClock(text string) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  s.textColor,
		Face: s.face,
	}
	ascent := s.face.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(config.TextInset, config.TextInset+ascent)
	d.DrawString(text)
}

// Image returns the current frame. It is overwritten by the next Draw.
func (s *Spectrum) Image() *image.RGBA {
	return s.img
}

// FormatClock formats d as H:MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return f.Close()
}
