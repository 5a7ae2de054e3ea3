package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/linuxmatters/jiveplay/internal/audio"
	"github.com/linuxmatters/jiveplay/internal/config"
	"github.com/linuxmatters/jiveplay/internal/playback"
	"github.com/linuxmatters/jiveplay/internal/renderer"
)

// renderSnapshot decodes one FFT window of src at the given position and
// saves the spectrum frame the player UI would show there as a PNG.
func renderSnapshot(src audio.Source, at time.Duration, path string) error {
	stream, err := src.Open()
	if err != nil {
		return err
	}
	defer stream.Close()

	format := stream.Format()
	frameSize := format.FrameSize()
	offset := int64(at.Seconds()*float64(format.SampleRate)) * int64(frameSize)
	var skipped int64
	for skipped < offset {
		n, err := stream.Skip(offset - skipped)
		if err != nil {
			return fmt.Errorf("failed to skip to %s: %w", at, err)
		}
		if n == 0 {
			return fmt.Errorf("position %s is beyond the end of %s", at, src.Name())
		}
		skipped += n
	}

	frames := config.FFTSize
	block := make([]byte, frames*frameSize)
	n, err := io.ReadFull(stream, block)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("failed to read audio at %s: %w", at, err)
	}

	left := make([]float64, frames)
	right := make([]float64, frames)
	audio.DeinterleaveS16(block[:n], format.Channels, left, right)
	store := playback.NewChannelStore(frames)
	store.Update(left, right, format.Channels)

	proc, err := audio.NewProcessor(config.FFTSize)
	if err != nil {
		return err
	}
	bands := make([]float64, config.NumBands)
	if err := proc.Bands(store.Mixed.Snapshot(), config.Sensitivity, audio.DefaultBaseScale, bands); err != nil {
		return err
	}

	spectrum := renderer.NewSpectrum(config.Width, config.Height, config.NumBands)
	spectrum.Draw(bands, at)
	return renderer.SavePNG(path, spectrum.Image())
}
