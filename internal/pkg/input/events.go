package input

import (
	"context"
	"fmt"

	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"

	"github.com/evtouch/evtouch/internal/pkg/logger"
	"github.com/evtouch/evtouch/internal/pkg/touch"
)

var log = logger.GetLogger()

// convert narrows a kernel input event to the raw form the decoder consumes,
// timestamp in microseconds
func convert(ev *evdev.InputEvent) touch.RawEvent {
	kind := touch.KindOther
	switch ev.Type {
	case evdev.EV_ABS:
		kind = touch.KindAbsAxis
	case evdev.EV_SYN:
		if ev.Code == evdev.SYN_REPORT {
			kind = touch.KindSynchronize
		}
	}

	return touch.RawEvent{
		Kind:      kind,
		Code:      ev.Code,
		Value:     ev.Value,
		Timestamp: uint64(ev.Time.Sec)*1_000_000 + uint64(ev.Time.Usec),
	}
}

// ProcessEvents reads raw events from the device until the context is
// cancelled or the device fails. The returned error channel delivers the
// read failure (if any) after the event channel is closed.
func (t *Touchscreen) ProcessEvents(ctx context.Context) (<-chan touch.RawEvent, <-chan error) {
	var events = make(chan touch.RawEvent)
	var failure = make(chan error, 1)

	go func() {
		<-ctx.Done()
		err := t.Close()
		if err != nil {
			log.Info(fmt.Sprintf("device close failed: %v", err), zap.String("device_name", t.name), logger.Debug)
		}
	}()

	go func() {
		defer close(events)
		defer close(failure)

		log.Info("Reading input events", zap.String("device_name", t.name), logger.Debug)

		err := t.dev.NonBlock()
		if err != nil {
			log.Info(fmt.Sprintf("enabling non-blocking event reading mode failed: %v", err),
				zap.String("device_name", t.name), logger.Warning,
			)
		}

		for {
			event, err := t.dev.ReadOne()
			if err != nil {
				if ctx.Err() == nil {
					failure <- err
				}
				break
			}
			events <- convert(event)
		}
		log.Info("Reading input events finished", zap.String("device_name", t.name), logger.Debug)
	}()

	return events, failure
}
