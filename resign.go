package server

import (
	"context"
	"net"

	"github.com/raft-exchange/model"
)

func (e *ServerExchange) BeginResign(ctx context.Context, payload []byte, sender net.Addr) error {
	sender = withPort(sender, model.ParseResign(payload))
	return e.begin(ctx, model.Resign, func(ctx context.Context) (model.Result[bool], error) {
		ok, err := e.core.ReceiveResign(ctx, sender)
		return model.Result[bool]{Value: ok}, err
	})
}

// EndResign writes a single accepted flag; resign replies carry no term.
func (e *ServerExchange) EndResign(ctx context.Context, out []byte) (model.PacketHeaders, int, bool, error) {
	r, err := e.end(ctx, model.Resign)
	if err != nil {
		return model.PacketHeaders{}, 0, false, err
	}
	n := model.WriteBool(r.Value, out)
	return model.NewHeaders(model.Resign, model.Ack), n, false, nil
}
