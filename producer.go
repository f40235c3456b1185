package server

import "github.com/raft-exchange/model"

// EntryProducer yields the log entries carried by one request.
type EntryProducer interface {
	RemainingCount() int64
	Next() (model.Entry, bool)
}

// EmptyEntries is shared by every heartbeat; it holds no state.
var EmptyEntries EntryProducer = emptyProducer{}

type emptyProducer struct{}

func (emptyProducer) RemainingCount() int64 { return 0 }

func (emptyProducer) Next() (model.Entry, bool) { return model.Entry{}, false }

type sliceProducer struct {
	entries []model.Entry
	pos     int
}

func newEntryProducer(entries []model.Entry) EntryProducer {
	if len(entries) == 0 {
		return EmptyEntries
	}
	return &sliceProducer{entries: entries}
}

func (p *sliceProducer) RemainingCount() int64 {
	return int64(len(p.entries) - p.pos)
}

func (p *sliceProducer) Next() (model.Entry, bool) {
	if p.pos >= len(p.entries) {
		return model.Entry{}, false
	}
	e := p.entries[p.pos]
	p.pos++
	return e, true
}
