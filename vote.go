package server

import (
	"context"
	"net"

	"github.com/raft-exchange/model"
)

func (e *ServerExchange) BeginVote(ctx context.Context, payload []byte, sender net.Addr) error {
	req := model.ParseVote(payload)
	sender = withPort(sender, req.RemotePort)
	return e.begin(ctx, model.Vote, func(ctx context.Context) (model.Result[bool], error) {
		return e.core.ReceiveVote(ctx, sender, req.Term, req.LastLogIndex, req.LastLogTerm)
	})
}

func (e *ServerExchange) EndVote(ctx context.Context, out []byte) (model.PacketHeaders, int, bool, error) {
	return e.endResult(ctx, model.Vote, out)
}

func (e *ServerExchange) BeginPreVote(ctx context.Context, payload []byte, sender net.Addr) error {
	req := model.ParseVote(payload)
	sender = withPort(sender, req.RemotePort)
	return e.begin(ctx, model.PreVote, func(ctx context.Context) (model.Result[bool], error) {
		return e.core.ReceivePreVote(ctx, sender, req.Term, req.LastLogIndex, req.LastLogTerm)
	})
}

func (e *ServerExchange) EndPreVote(ctx context.Context, out []byte) (model.PacketHeaders, int, bool, error) {
	return e.endResult(ctx, model.PreVote, out)
}
