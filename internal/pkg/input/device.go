package input

import (
	"fmt"
	"strings"

	"github.com/holoplot/go-evdev"

	"github.com/evtouch/evtouch/internal/pkg/touch"
)

type DeviceID struct {
	Bus, Vendor, Product, Version uint16
}

// Touchscreen wraps a single multi-touch evdev handler together with its
// capability report
type Touchscreen struct {
	dev  *evdev.InputDevice
	name string
	path string
	id   DeviceID
	caps touch.Capabilities

	grabbed bool
}

func OpenTouchscreen(path string) (*Touchscreen, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening handler failed: %w", err)
	}

	t := &Touchscreen{dev: dev, path: dev.Path()}

	name, err := dev.Name()
	if err == nil {
		t.name = strings.Trim(name, "\x00")
	}
	if id, err := dev.InputID(); err == nil {
		t.id = DeviceID{Bus: id.BusType, Vendor: id.Vendor, Product: id.Product, Version: id.Version}
	}

	caps, err := queryCapabilities(dev)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	t.caps = caps

	return t, nil
}

// queryCapabilities reads the kernel's absolute-axis report for the slot
// range and the raw coordinate ranges, consumed once at startup
func queryCapabilities(dev *evdev.InputDevice) (touch.Capabilities, error) {
	infos, err := dev.AbsInfos()
	if err != nil {
		return touch.Capabilities{}, fmt.Errorf("reading axis capabilities failed: %w", err)
	}

	slotInfo, ok := infos[evdev.ABS_MT_SLOT]
	if !ok {
		return touch.Capabilities{}, fmt.Errorf("%w: device reports no multi-touch slots", touch.InvalidCapabilities)
	}
	xInfo, ok := infos[evdev.ABS_MT_POSITION_X]
	if !ok {
		return touch.Capabilities{}, fmt.Errorf("%w: device reports no X axis", touch.InvalidCapabilities)
	}
	yInfo, ok := infos[evdev.ABS_MT_POSITION_Y]
	if !ok {
		return touch.Capabilities{}, fmt.Errorf("%w: device reports no Y axis", touch.InvalidCapabilities)
	}

	caps := touch.Capabilities{
		MinSlot: int(slotInfo.Minimum),
		MaxSlot: int(slotInfo.Maximum),
		RangeX:  touch.AxisRange{Min: xInfo.Minimum, Max: xInfo.Maximum},
		RangeY:  touch.AxisRange{Min: yInfo.Minimum, Max: yInfo.Maximum},
	}
	return caps, nil
}

func (t *Touchscreen) Capabilities() touch.Capabilities {
	return t.caps
}

func (t *Touchscreen) Name() string {
	return t.name
}

func (t *Touchscreen) Path() string {
	return t.path
}

func (t *Touchscreen) ID() DeviceID {
	return t.id
}

func (t *Touchscreen) String() string {
	return fmt.Sprintf(
		"\"%s\" (%s, 0x%04x, 0x%04x, 0x%04x, 0x%04x)",
		t.name, t.path, t.id.Bus, t.id.Vendor, t.id.Product, t.id.Version,
	)
}

// Grab requests exclusive access, keeping the compositor or console from
// seeing the same touches twice
func (t *Touchscreen) Grab() error {
	err := t.dev.Grab()
	if err != nil {
		return fmt.Errorf("grabbing device failed: %w", err)
	}
	t.grabbed = true
	return nil
}

func (t *Touchscreen) Close() error {
	if t.grabbed {
		_ = t.dev.Ungrab()
		t.grabbed = false
	}
	return t.dev.Close()
}
