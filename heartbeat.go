package server

import (
	"context"
	"net"

	"github.com/raft-exchange/model"
)

// BeginHeartbeat parses the payload and starts ReceiveEntries with no
// entries. It does not wait for the consensus core.
func (e *ServerExchange) BeginHeartbeat(ctx context.Context, payload []byte, sender net.Addr) error {
	req := model.ParseHeartbeat(payload)
	sender = withPort(sender, req.RemotePort)
	return e.begin(ctx, model.Heartbeat, func(ctx context.Context) (model.Result[bool], error) {
		return e.core.ReceiveEntries(ctx, sender, req.Term, EmptyEntries, req.PrevLogIndex, req.PrevLogTerm, req.CommitIndex)
	})
}

// EndHeartbeat waits for the operation started by BeginHeartbeat and
// writes its result into out. Heartbeat responses never span packets.
func (e *ServerExchange) EndHeartbeat(ctx context.Context, out []byte) (model.PacketHeaders, int, bool, error) {
	return e.endResult(ctx, model.Heartbeat, out)
}
