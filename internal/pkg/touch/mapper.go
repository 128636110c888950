package touch

import (
	"fmt"
	"sort"
)

// MapperConfig establishes the affine map from raw device units to logical
// window units: raw values are clamped to the device range, offset to zero
// and multiplied by the scale, with an optional per-axis flip for devices
// reporting mirrored axes. Rotation is not supported.
type MapperConfig struct {
	ScaleX, ScaleY   float64
	InvertX, InvertY bool
	RangeX, RangeY   AxisRange
}

func (c MapperConfig) validate() error {
	if c.ScaleX <= 0 || c.ScaleY <= 0 {
		return fmt.Errorf("%w: scale must be positive", InvalidMapping)
	}
	if c.RangeX.Max <= c.RangeX.Min || c.RangeY.Max <= c.RangeY.Min {
		return fmt.Errorf("%w: empty axis range", InvalidMapping)
	}
	return nil
}

// FitToExtent derives a mapper configuration scaling the full device range
// onto a logical width x height extent
func FitToExtent(caps Capabilities, width, height float64, invertX, invertY bool) MapperConfig {
	return MapperConfig{
		ScaleX:  width / float64(caps.RangeX.Max-caps.RangeX.Min),
		ScaleY:  height / float64(caps.RangeY.Max-caps.RangeY.Min),
		InvertX: invertX,
		InvertY: invertY,
		RangeX:  caps.RangeX,
		RangeY:  caps.RangeY,
	}
}

type logicalTouch struct {
	id   uint32
	x, y float64
}

// TouchMapper assigns stable external identifiers to touch lifetimes and
// converts raw slot deltas into logical window events
type TouchMapper struct {
	cfg MapperConfig
	// nextID only grows while any touch is live, which keeps external ids
	// unambiguous for the consumer even when the device recycles its
	// tracking ids
	nextID  uint32
	touches map[int]*logicalTouch
	diag    DiagnosticFunc
}

func NewTouchMapper(cfg MapperConfig, diag DiagnosticFunc) (*TouchMapper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TouchMapper{
		cfg:     cfg,
		touches: make(map[int]*logicalTouch),
		diag:    diag,
	}, nil
}

// Configure replaces the coordinate mapping, taking effect from the next
// batch. Already-emitted events are not corrected retroactively.
func (m *TouchMapper) Configure(cfg MapperConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

func (m *TouchMapper) report(kind DiagnosticKind, delta TouchDelta) {
	if m.diag == nil {
		return
	}
	m.diag(Diagnostic{Kind: kind, Slot: delta.Slot, Value: delta.TrackingID})
}

// Process converts one batch into window events, preserving batch order
func (m *TouchMapper) Process(batch TouchBatch) []WindowEvent {
	var out []WindowEvent

	for _, delta := range batch.Deltas {
		switch delta.Phase {
		case PhaseBegan:
			out = append(out, m.begin(delta, batch.Timestamp))
		case PhaseMoved:
			t, ok := m.touches[delta.Slot]
			if !ok {
				// move before began, recover by synthesizing the start of
				// the touch
				m.report(MoveBeforeBegan, delta)
				out = append(out, m.begin(delta, batch.Timestamp))
				t = m.touches[delta.Slot]
			}
			t.x, t.y = m.mapPosition(delta.X, delta.Y)
			out = append(out, WindowEvent{
				ID: t.id, Phase: PhaseMoved, X: t.x, Y: t.y, Timestamp: batch.Timestamp,
			})
		case PhaseEnded:
			t, ok := m.touches[delta.Slot]
			if !ok {
				m.report(OrphanEnded, delta)
				continue
			}
			x, y := m.mapPosition(delta.X, delta.Y)
			out = append(out, WindowEvent{
				ID: t.id, Phase: PhaseEnded, X: x, Y: y, Timestamp: batch.Timestamp,
			})
			m.release(delta.Slot)
		}
	}

	return out
}

func (m *TouchMapper) begin(delta TouchDelta, timestamp uint64) WindowEvent {
	x, y := m.mapPosition(delta.X, delta.Y)
	id := m.nextID
	m.nextID++
	m.touches[delta.Slot] = &logicalTouch{id: id, x: x, y: y}
	return WindowEvent{ID: id, Phase: PhaseBegan, X: x, Y: y, Timestamp: timestamp}
}

func (m *TouchMapper) release(slotIndex int) {
	delete(m.touches, slotIndex)
	if len(m.touches) == 0 {
		m.nextID = 0
	}
}

// Teardown synthesizes an Ended event for every live touch in ascending
// slot order, guaranteeing the sink never observes an unpaired Began when
// the device source fails
func (m *TouchMapper) Teardown(timestamp uint64) []WindowEvent {
	if len(m.touches) == 0 {
		return nil
	}

	slots := make([]int, 0, len(m.touches))
	for slotIndex := range m.touches {
		slots = append(slots, slotIndex)
	}
	sort.Ints(slots)

	var out []WindowEvent
	for _, slotIndex := range slots {
		t := m.touches[slotIndex]
		out = append(out, WindowEvent{
			ID: t.id, Phase: PhaseEnded, X: t.x, Y: t.y, Timestamp: timestamp,
		})
		delete(m.touches, slotIndex)
	}
	m.nextID = 0

	return out
}

func (m *TouchMapper) mapPosition(rawX, rawY int32) (float64, float64) {
	x := mapAxis(rawX, m.cfg.RangeX, m.cfg.ScaleX, m.cfg.InvertX)
	y := mapAxis(rawY, m.cfg.RangeY, m.cfg.ScaleY, m.cfg.InvertY)
	return x, y
}

func mapAxis(value int32, r AxisRange, scale float64, invert bool) float64 {
	if value < r.Min {
		value = r.Min
	}
	if value > r.Max {
		value = r.Max
	}
	if invert {
		return float64(r.Max-value) * scale
	}
	return float64(value-r.Min) * scale
}
