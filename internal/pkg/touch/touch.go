package touch

import (
	"errors"

	"github.com/holoplot/go-evdev"
)

// noContact is the kernel's tracking id for an empty slot
const noContact int32 = -1

var (
	InvalidCapabilities = errors.New("invalid capability range")
	InvalidMapping      = errors.New("invalid mapping configuration")
	SourceClosed        = errors.New("device source closed")
)

type RawKind int

const (
	KindOther RawKind = iota
	KindAbsAxis
	KindSynchronize
)

// RawEvent is a single kernel input event as delivered by the device source.
// Timestamp is in microseconds.
type RawEvent struct {
	Kind      RawKind
	Code      evdev.EvCode
	Value     int32
	Timestamp uint64
}

type AxisRange struct {
	Min, Max int32
}

// Capabilities is the device capability report queried once at startup
type Capabilities struct {
	MinSlot, MaxSlot int
	RangeX, RangeY   AxisRange
}

func (c Capabilities) validate() error {
	if c.MinSlot < 0 || c.MaxSlot < c.MinSlot {
		return InvalidCapabilities
	}
	if c.RangeX.Max <= c.RangeX.Min || c.RangeY.Max <= c.RangeY.Min {
		return InvalidCapabilities
	}
	return nil
}

type Phase int

const (
	PhaseBegan Phase = iota
	PhaseMoved
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseBegan:
		return "began"
	case PhaseMoved:
		return "moved"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// TouchDelta describes one slot transition detected between two sync markers
type TouchDelta struct {
	Slot       int
	TrackingID int32
	X, Y       int32
	Phase      Phase
}

// TouchBatch is one atomic input frame, deltas ordered by ascending slot index
type TouchBatch struct {
	Timestamp uint64
	Deltas    []TouchDelta
}

// WindowEvent is the externally-visible record handed to the window layer,
// position already converted to logical coordinates
type WindowEvent struct {
	ID        uint32
	Phase     Phase
	X, Y      float64
	Timestamp uint64
}

type EventSink interface {
	Dispatch(WindowEvent)
}

type DiagnosticKind int

const (
	UnselectedSlot DiagnosticKind = iota
	OutOfRangeSlot
	MoveBeforeBegan
	OrphanEnded
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnselectedSlot:
		return "unselected_slot"
	case OutOfRangeSlot:
		return "out_of_range_slot"
	case MoveBeforeBegan:
		return "move_before_began"
	case OrphanEnded:
		return "orphan_ended"
	default:
		return "unknown"
	}
}

// Diagnostic reports a recoverable protocol violation, it never affects
// control flow
type Diagnostic struct {
	Kind  DiagnosticKind
	Slot  int
	Code  evdev.EvCode
	Value int32
}

type DiagnosticFunc func(Diagnostic)

// Codes maps the multi-touch protocol roles to their numeric event codes.
// The defaults mirror the kernel protocol, devices with remapped axes may
// provide their own table.
type Codes struct {
	Slot       evdev.EvCode
	TrackingID evdev.EvCode
	PositionX  evdev.EvCode
	PositionY  evdev.EvCode
}

func MultitouchCodes() Codes {
	return Codes{
		Slot:       evdev.ABS_MT_SLOT,
		TrackingID: evdev.ABS_MT_TRACKING_ID,
		PositionX:  evdev.ABS_MT_POSITION_X,
		PositionY:  evdev.ABS_MT_POSITION_Y,
	}
}
