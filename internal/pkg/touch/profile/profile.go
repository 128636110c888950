package profile

import (
	"errors"

	"github.com/evtouch/evtouch/internal/pkg/input"
	"github.com/evtouch/evtouch/internal/pkg/logger"
	"github.com/evtouch/evtouch/internal/pkg/touch"
)

var log = logger.GetLogger()

var DefaultProfileNotFound = errors.New("default profile not found")

type Range struct {
	Min, Max int32
}

// Profile is a per-device calibration: the logical extent touches are scaled
// onto, per-axis inversion for mirrored panels and optional overrides of the
// kernel-reported raw ranges
type Profile struct {
	ID input.DeviceID

	Width, Height    float64
	InvertX, InvertY bool

	// nil means trust the capability report
	RangeX, RangeY *Range
}

// MapperConfig derives the coordinate mapping from the profile and the
// device capability report. A zero extent falls back to the raw range,
// yielding a 1:1 scale.
func (p Profile) MapperConfig(caps touch.Capabilities) touch.MapperConfig {
	rangeX := caps.RangeX
	rangeY := caps.RangeY
	if p.RangeX != nil {
		rangeX = touch.AxisRange{Min: p.RangeX.Min, Max: p.RangeX.Max}
	}
	if p.RangeY != nil {
		rangeY = touch.AxisRange{Min: p.RangeY.Min, Max: p.RangeY.Max}
	}

	width := p.Width
	if width == 0 {
		width = float64(rangeX.Max - rangeX.Min)
	}
	height := p.Height
	if height == 0 {
		height = float64(rangeY.Max - rangeY.Min)
	}

	return touch.MapperConfig{
		ScaleX:  width / float64(rangeX.Max-rangeX.Min),
		ScaleY:  height / float64(rangeY.Max-rangeY.Min),
		InvertX: p.InvertX,
		InvertY: p.InvertY,
		RangeX:  rangeX,
		RangeY:  rangeY,
	}
}

type ProfileMap map[input.DeviceID]Profile

// Find returns the profile for the given device, falling back to the
// zero-identifier default
func (m ProfileMap) Find(id input.DeviceID) (Profile, error) {
	p, ok := m[id]
	if ok {
		return p, nil
	}
	p, ok = m[input.DeviceID{}] // picking default profile
	if ok {
		return p, nil
	}
	return Profile{}, DefaultProfileNotFound
}
