package playback

import (
	"math"

	"github.com/linuxmatters/jiveplay/internal/output"
)

// gainToDB maps a normalized gain in [0, 1] onto a control's dB range with
// a logarithmic taper. 1.0 lands half way up the positive range.
func gainToDB(v, minDB, maxDB float64) float64 {
	v = min(max(v, 0), 1)
	amp := 0.5*maxDB - minDB
	c := math.Ln10 / 20
	db := minDB + (1/c)*math.Log(1+(math.Exp(c*amp)-1)*v)
	return min(max(db, minDB), maxDB)
}

// dbToGain inverts gainToDB.
func dbToGain(db, minDB, maxDB float64) float64 {
	amp := 0.5*maxDB - minDB
	c := math.Ln10 / 20
	denom := math.Exp(c*amp) - 1
	if denom == 0 {
		return 0
	}
	return min(max((math.Exp(c*(db-minDB))-1)/denom, 0), 1)
}

func (p *Player) controls() output.Controls {
	p.mu.Lock()
	device := p.device
	p.mu.Unlock()
	if device == nil {
		return output.Controls{}
	}
	return device.Controls()
}

// SetGain sets the output gain from a normalized value in [0, 1].
func (p *Player) SetGain(v float64) error {
	ctl := p.controls().Gain
	if ctl == nil {
		return ErrControlUnsupported
	}
	v = min(max(v, 0), 1)
	db := ctl.Set(gainToDB(v, ctl.Min(), ctl.Max()))

	p.mu.Lock()
	p.gain = &v
	p.mu.Unlock()

	p.logger.Debug("Gain changed", "gain", v, "db", db)
	p.publish(EventGainChanged, v)
	return nil
}

// Gain returns the normalized output gain.
func (p *Player) Gain() (float64, error) {
	ctl := p.controls().Gain
	if ctl == nil {
		return 0, ErrControlUnsupported
	}
	return dbToGain(ctl.Value(), ctl.Min(), ctl.Max()), nil
}

// SetPan sets the stereo balance in [-1, 1].
func (p *Player) SetPan(v float64) error {
	ctl := p.controls().Pan
	if ctl == nil {
		return ErrControlUnsupported
	}
	v = ctl.Set(v)

	p.mu.Lock()
	p.pan = &v
	p.mu.Unlock()

	p.publish(EventPanChanged, v)
	return nil
}

// Pan returns the stereo balance.
func (p *Player) Pan() (float64, error) {
	ctl := p.controls().Pan
	if ctl == nil {
		return 0, ErrControlUnsupported
	}
	return ctl.Value(), nil
}
