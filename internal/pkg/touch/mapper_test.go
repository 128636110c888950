package touch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func identityConfig() MapperConfig {
	return MapperConfig{
		ScaleX: 1, ScaleY: 1,
		RangeX: AxisRange{Min: 0, Max: 4095},
		RangeY: AxisRange{Min: 0, Max: 4095},
	}
}

func TestMapperConfigValidation(t *testing.T) {
	for i, tc := range []MapperConfig{
		{ScaleX: 0, ScaleY: 1, RangeX: AxisRange{0, 100}, RangeY: AxisRange{0, 100}},
		{ScaleX: 1, ScaleY: -1, RangeX: AxisRange{0, 100}, RangeY: AxisRange{0, 100}},
		{ScaleX: 1, ScaleY: 1, RangeX: AxisRange{100, 100}, RangeY: AxisRange{0, 100}},
		{ScaleX: 1, ScaleY: 1, RangeX: AxisRange{0, 100}, RangeY: AxisRange{100, 0}},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := NewTouchMapper(tc, nil)
			assert.ErrorIs(t, err, InvalidMapping)
		})
	}
}

func TestTouchLifetime(t *testing.T) {
	m, err := NewTouchMapper(identityConfig(), nil)
	assert.NoError(t, err)

	events := m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 100, Y: 200, Phase: PhaseBegan},
	}})
	assert.Equal(t, []WindowEvent{
		{ID: 0, Phase: PhaseBegan, X: 100, Y: 200, Timestamp: 1},
	}, events)

	events = m.Process(TouchBatch{Timestamp: 2, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 150, Y: 200, Phase: PhaseMoved},
	}})
	assert.Equal(t, []WindowEvent{
		{ID: 0, Phase: PhaseMoved, X: 150, Y: 200, Timestamp: 2},
	}, events)

	events = m.Process(TouchBatch{Timestamp: 3, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 150, Y: 200, Phase: PhaseEnded},
	}})
	assert.Equal(t, []WindowEvent{
		{ID: 0, Phase: PhaseEnded, X: 150, Y: 200, Timestamp: 3},
	}, events)

	// the identifier becomes eligible for reuse once the touch ended
	events = m.Process(TouchBatch{Timestamp: 4, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 6, X: 10, Y: 20, Phase: PhaseBegan},
	}})
	assert.Equal(t, uint32(0), events[0].ID)
}

func TestIdentifierNeverReusedWhileLive(t *testing.T) {
	m, err := NewTouchMapper(identityConfig(), nil)
	assert.NoError(t, err)

	m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 1, Y: 1, Phase: PhaseBegan},
		{Slot: 1, TrackingID: 6, X: 2, Y: 2, Phase: PhaseBegan},
	}})

	events := m.Process(TouchBatch{Timestamp: 2, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 1, Y: 1, Phase: PhaseEnded},
	}})
	assert.Equal(t, uint32(0), events[0].ID)

	// slot 1 is still live with id 1, a fresh touch must not reuse 0 yet
	events = m.Process(TouchBatch{Timestamp: 3, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 7, X: 3, Y: 3, Phase: PhaseBegan},
	}})
	assert.Equal(t, uint32(2), events[0].ID)
}

func TestCoordinateMapping(t *testing.T) {
	for _, tc := range []struct {
		name       string
		cfg        MapperConfig
		rawX, rawY int32
		x, y       float64
	}{
		{
			name: "identity",
			cfg:  identityConfig(),
			rawX: 100, rawY: 200,
			x: 100, y: 200,
		},
		{
			name: "scaled",
			cfg: MapperConfig{
				ScaleX: 0.5, ScaleY: 2,
				RangeX: AxisRange{0, 4095}, RangeY: AxisRange{0, 4095},
			},
			rawX: 100, rawY: 200,
			x: 50, y: 400,
		},
		{
			name: "offset range",
			cfg: MapperConfig{
				ScaleX: 1, ScaleY: 1,
				RangeX: AxisRange{100, 4195}, RangeY: AxisRange{100, 4195},
			},
			rawX: 150, rawY: 300,
			x: 50, y: 200,
		},
		{
			name: "inverted",
			cfg: MapperConfig{
				ScaleX: 1, ScaleY: 1, InvertX: true, InvertY: true,
				RangeX: AxisRange{0, 1000}, RangeY: AxisRange{0, 1000},
			},
			rawX: 100, rawY: 200,
			x: 900, y: 800,
		},
		{
			name: "clamped below",
			cfg:  identityConfig(),
			rawX: -50, rawY: -1,
			x: 0, y: 0,
		},
		{
			name: "clamped above",
			cfg:  identityConfig(),
			rawX: 9000, rawY: 5000,
			x: 4095, y: 4095,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewTouchMapper(tc.cfg, nil)
			assert.NoError(t, err)

			events := m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
				{Slot: 0, TrackingID: 1, X: tc.rawX, Y: tc.rawY, Phase: PhaseBegan},
			}})
			assert.Equal(t, tc.x, events[0].X)
			assert.Equal(t, tc.y, events[0].Y)
		})
	}
}

func TestReconfigureAppliesToNextBatch(t *testing.T) {
	m, err := NewTouchMapper(identityConfig(), nil)
	assert.NoError(t, err)

	events := m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 1, X: 100, Y: 100, Phase: PhaseBegan},
	}})
	assert.Equal(t, 100.0, events[0].X)

	cfg := identityConfig()
	cfg.ScaleX = 2
	cfg.ScaleY = 2
	assert.NoError(t, m.Configure(cfg))

	events = m.Process(TouchBatch{Timestamp: 2, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 1, X: 100, Y: 100, Phase: PhaseMoved},
	}})
	assert.Equal(t, 200.0, events[0].X)
}

func TestMoveBeforeBeganSynthesized(t *testing.T) {
	var collector diagCollector
	m, err := NewTouchMapper(identityConfig(), collector.collect)
	assert.NoError(t, err)

	events := m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 100, Y: 200, Phase: PhaseMoved},
	}})
	assert.Len(t, events, 2)
	assert.Equal(t, PhaseBegan, events[0].Phase)
	assert.Equal(t, PhaseMoved, events[1].Phase)
	assert.Equal(t, events[0].ID, events[1].ID)
	assert.Len(t, collector.diags, 1)
	assert.Equal(t, MoveBeforeBegan, collector.diags[0].Kind)
}

func TestOrphanEndedDropped(t *testing.T) {
	var collector diagCollector
	m, err := NewTouchMapper(identityConfig(), collector.collect)
	assert.NoError(t, err)

	events := m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 5, X: 100, Y: 200, Phase: PhaseEnded},
	}})
	assert.Len(t, events, 0)
	assert.Len(t, collector.diags, 1)
	assert.Equal(t, OrphanEnded, collector.diags[0].Kind)
}

func TestTeardownEndsEveryLiveTouch(t *testing.T) {
	m, err := NewTouchMapper(identityConfig(), nil)
	assert.NoError(t, err)

	m.Process(TouchBatch{Timestamp: 1, Deltas: []TouchDelta{
		{Slot: 2, TrackingID: 7, X: 3, Y: 3, Phase: PhaseBegan},
		{Slot: 4, TrackingID: 8, X: 4, Y: 4, Phase: PhaseBegan},
	}})
	m.Process(TouchBatch{Timestamp: 2, Deltas: []TouchDelta{
		{Slot: 0, TrackingID: 9, X: 5, Y: 5, Phase: PhaseBegan},
	}})

	events := m.Teardown(3)
	assert.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, PhaseEnded, ev.Phase)
		assert.Equal(t, uint64(3), ev.Timestamp)
	}
	// ascending slot order: slot 0 carries id 2, slots 2 and 4 ids 0 and 1
	assert.Equal(t, uint32(2), events[0].ID)
	assert.Equal(t, uint32(0), events[1].ID)
	assert.Equal(t, uint32(1), events[2].ID)

	assert.Len(t, m.Teardown(4), 0)
}

func TestFitToExtent(t *testing.T) {
	caps := Capabilities{
		MinSlot: 0, MaxSlot: 9,
		RangeX: AxisRange{0, 4096},
		RangeY: AxisRange{0, 2048},
	}
	cfg := FitToExtent(caps, 1024, 1024, false, true)
	assert.Equal(t, 0.25, cfg.ScaleX)
	assert.Equal(t, 0.5, cfg.ScaleY)
	assert.False(t, cfg.InvertX)
	assert.True(t, cfg.InvertY)
	assert.Equal(t, caps.RangeX, cfg.RangeX)
}
