package touch

// slot keeps decoder-side state of one physical contact point
type slot struct {
	trackingID int32
	x, y       int32

	dirty bool
	// live tells whether the slot had a valid tracking id at the previous
	// sync marker
	live bool
	// endedID holds the tracking id that has to be closed on the next sync,
	// either because the contact was released or because the device replaced
	// the id without releasing the slot first
	endedID  int32
	replaced bool
}

// EventDemuxer converts an interleaved stream of absolute-axis events into
// ordered per-slot touch deltas, one batch per sync marker.
type EventDemuxer struct {
	caps  Capabilities
	codes Codes
	slots []slot
	// current is the device's sticky slot cursor, set only by slot-select
	// events, -1 until the first one arrives
	current int
	diag    DiagnosticFunc
}

func NewEventDemuxer(caps Capabilities, codes Codes, diag DiagnosticFunc) (*EventDemuxer, error) {
	if err := caps.validate(); err != nil {
		return nil, err
	}

	slots := make([]slot, caps.MaxSlot-caps.MinSlot+1)
	for i := range slots {
		slots[i].trackingID = noContact
		slots[i].endedID = noContact
	}

	return &EventDemuxer{
		caps:    caps,
		codes:   codes,
		slots:   slots,
		current: -1,
		diag:    diag,
	}, nil
}

func (d *EventDemuxer) report(kind DiagnosticKind, slotIndex int, code RawEvent) {
	if d.diag == nil {
		return
	}
	d.diag(Diagnostic{Kind: kind, Slot: slotIndex, Code: code.Code, Value: code.Value})
}

// Feed consumes a single raw event, a non-nil batch is returned for every
// sync marker (possibly with no deltas)
func (d *EventDemuxer) Feed(ev RawEvent) *TouchBatch {
	switch ev.Kind {
	case KindSynchronize:
		return d.drain(ev.Timestamp)
	case KindAbsAxis:
		d.handleAbs(ev)
	}
	return nil
}

func (d *EventDemuxer) handleAbs(ev RawEvent) {
	switch ev.Code {
	case d.codes.Slot:
		index := int(ev.Value)
		if index < d.caps.MinSlot || index > d.caps.MaxSlot {
			d.report(OutOfRangeSlot, index, ev)
			// leave the demuxer unselected instead of corrupting the
			// previously selected slot
			d.current = -1
			return
		}
		d.current = index
	case d.codes.TrackingID:
		s := d.selected(ev)
		if s == nil {
			return
		}
		d.writeTrackingID(s, ev.Value)
	case d.codes.PositionX:
		s := d.selected(ev)
		if s == nil {
			return
		}
		if s.trackingID == noContact {
			d.report(UnselectedSlot, d.current, ev)
			return
		}
		if ev.Value != s.x {
			s.x = ev.Value
			s.dirty = true
		}
	case d.codes.PositionY:
		s := d.selected(ev)
		if s == nil {
			return
		}
		if s.trackingID == noContact {
			d.report(UnselectedSlot, d.current, ev)
			return
		}
		if ev.Value != s.y {
			s.y = ev.Value
			s.dirty = true
		}
	default:
		// non-multi-touch axis, out of scope
	}
}

func (d *EventDemuxer) selected(ev RawEvent) *slot {
	if d.current < 0 {
		d.report(UnselectedSlot, -1, ev)
		return nil
	}
	return &d.slots[d.current-d.caps.MinSlot]
}

func (d *EventDemuxer) writeTrackingID(s *slot, value int32) {
	old := s.trackingID
	if value == old {
		return
	}

	if value < 0 {
		value = noContact
	}

	if old != noContact && value != noContact && s.live && !s.replaced {
		// id replaced without release, the previous contact has to be
		// closed before the new one begins
		s.endedID = old
		s.replaced = true
	}
	if old != noContact && value == noContact && s.live && !s.replaced {
		s.endedID = old
	}
	if old == noContact && value != noContact && s.live && !s.replaced {
		// the slot was released earlier in this same frame, surfacing the
		// new contact requires an ended/began pair, never a bare move
		s.replaced = true
	}

	s.trackingID = value
	s.dirty = true
}

// drain emits one delta per dirty slot in ascending slot order and resets
// the dirty flags, completing the current input frame
func (d *EventDemuxer) drain(timestamp uint64) *TouchBatch {
	batch := &TouchBatch{Timestamp: timestamp}

	for i := range d.slots {
		s := &d.slots[i]
		if !s.dirty {
			continue
		}
		index := d.caps.MinSlot + i

		switch {
		case s.replaced:
			batch.Deltas = append(batch.Deltas, TouchDelta{
				Slot: index, TrackingID: s.endedID, X: s.x, Y: s.y, Phase: PhaseEnded,
			})
			if s.trackingID != noContact {
				batch.Deltas = append(batch.Deltas, TouchDelta{
					Slot: index, TrackingID: s.trackingID, X: s.x, Y: s.y, Phase: PhaseBegan,
				})
				s.live = true
			} else {
				s.live = false
			}
		case s.trackingID == noContact:
			// a contact that began and was released within a single frame
			// was never surfaced, nothing to end
			if s.live {
				batch.Deltas = append(batch.Deltas, TouchDelta{
					Slot: index, TrackingID: s.endedID, X: s.x, Y: s.y, Phase: PhaseEnded,
				})
				s.live = false
			}
		case !s.live:
			batch.Deltas = append(batch.Deltas, TouchDelta{
				Slot: index, TrackingID: s.trackingID, X: s.x, Y: s.y, Phase: PhaseBegan,
			})
			s.live = true
		default:
			batch.Deltas = append(batch.Deltas, TouchDelta{
				Slot: index, TrackingID: s.trackingID, X: s.x, Y: s.y, Phase: PhaseMoved,
			})
		}

		s.dirty = false
		s.replaced = false
		s.endedID = noContact
	}

	return batch
}

// Reset returns every slot to the no-contact state, used after a source
// failure teardown
func (d *EventDemuxer) Reset() {
	for i := range d.slots {
		d.slots[i] = slot{trackingID: noContact, endedID: noContact}
	}
	d.current = -1
}
