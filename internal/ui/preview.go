package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PreviewConfig holds the size of the spectrum preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells
}

// DefaultPreviewConfig keeps the 2:1 frame roughly square on a terminal
// with 1:2 cells.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  64,
		Height: 16,
	}
}

// DownsampleFrame averages each cell-sized region of frame into one colour.
func DownsampleFrame(frame *image.RGBA, cfg PreviewConfig) [][]color.RGBA {
	bounds := frame.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}

	cellWidth := max(srcWidth/cfg.Width, 1)
	cellHeight := max(srcHeight/cfg.Height, 1)

	preview := make([][]color.RGBA, cfg.Height)
	for row := range preview {
		preview[row] = make([]color.RGBA, cfg.Width)
		for col := range preview[row] {
			srcX := col * cellWidth
			srcY := row * cellHeight

			var sumR, sumG, sumB, count uint32
			for y := srcY; y < srcY+cellHeight && y < srcHeight; y++ {
				for x := srcX; x < srcX+cellWidth && x < srcWidth; x++ {
					c := frame.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
					sumR += uint32(c.R)
					sumG += uint32(c.G)
					sumB += uint32(c.B)
					count++
				}
			}
			if count > 0 {
				preview[row][col] = color.RGBA{
					R: uint8(sumR / count),
					G: uint8(sumG / count),
					B: uint8(sumB / count),
					A: 255,
				}
			}
		}
	}
	return preview
}

// RenderPreview draws the grid with ANSI 24-bit background colours, one
// space per cell.
func RenderPreview(preview [][]color.RGBA) string {
	if len(preview) == 0 {
		return ""
	}

	var b strings.Builder
	border := strings.Repeat("─", len(preview[0]))
	b.WriteString("┌" + border + "┐\n")
	for _, row := range preview {
		b.WriteString("│")
		for _, px := range row {
			fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm \x1b[0m", px.R, px.G, px.B)
		}
		b.WriteString("│\n")
	}
	b.WriteString("└" + border + "┘\n")
	return b.String()
}
