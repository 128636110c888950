package touch

import (
	"fmt"
)

// Pipeline is the synchronous composition of demuxer and mapper: one raw
// event in, zero or more window events dispatched to the sink. It holds no
// background work, cancellation is simply the caller ceasing to feed it.
type Pipeline struct {
	demux  *EventDemuxer
	mapper *TouchMapper
	sink   EventSink
}

func NewPipeline(caps Capabilities, cfg MapperConfig, sink EventSink, diag DiagnosticFunc) (*Pipeline, error) {
	demux, err := NewEventDemuxer(caps, MultitouchCodes(), diag)
	if err != nil {
		return nil, fmt.Errorf("demuxer construction failed: %w", err)
	}
	mapper, err := NewTouchMapper(cfg, diag)
	if err != nil {
		return nil, fmt.Errorf("mapper construction failed: %w", err)
	}

	return &Pipeline{demux: demux, mapper: mapper, sink: sink}, nil
}

// Feed consumes one raw event, dispatching any completed batch to the sink
func (p *Pipeline) Feed(ev RawEvent) {
	batch := p.demux.Feed(ev)
	if batch == nil {
		return
	}
	for _, we := range p.mapper.Process(*batch) {
		p.sink.Dispatch(we)
	}
}

// Reconfigure swaps the coordinate mapping, effective from the next batch
func (p *Pipeline) Reconfigure(cfg MapperConfig) error {
	return p.mapper.Configure(cfg)
}

// Fail ends every live touch before surfacing the source failure, keeping
// the began/ended pairing intact for the sink
func (p *Pipeline) Fail(cause error, timestamp uint64) error {
	for _, we := range p.mapper.Teardown(timestamp) {
		p.sink.Dispatch(we)
	}
	p.demux.Reset()

	if cause == nil {
		return SourceClosed
	}
	return fmt.Errorf("%w: %s", SourceClosed, cause)
}
