package server

import (
	"context"
	"net"

	"github.com/raft-exchange/model"
)

// BeginAppendEntries is BeginHeartbeat with a block of entries attached.
// A corrupt block fails here and leaves the exchange idle.
func (e *ServerExchange) BeginAppendEntries(ctx context.Context, payload []byte, sender net.Addr) error {
	req, err := model.ParseAppendEntries(payload)
	if err != nil {
		return err
	}
	sender = withPort(sender, req.RemotePort)
	entries := newEntryProducer(req.Entries)
	return e.begin(ctx, model.AppendEntries, func(ctx context.Context) (model.Result[bool], error) {
		return e.core.ReceiveEntries(ctx, sender, req.Term, entries, req.PrevLogIndex, req.PrevLogTerm, req.CommitIndex)
	})
}

func (e *ServerExchange) EndAppendEntries(ctx context.Context, out []byte) (model.PacketHeaders, int, bool, error) {
	return e.endResult(ctx, model.AppendEntries, out)
}
