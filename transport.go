package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	rpcx "github.com/smallnest/rpcx/server"

	"github.com/raft-exchange/model"
)

// exchangeMethod is the rpcx method name of exchangeService.Exchange.
const exchangeMethod = "Exchange"

var ErrShortPayload = errors.New("payload shorter than message layout")

// exchangeService serves packets over rpcx. It owns framing checks and
// the request timeout; exchanges are pooled between requests.
type exchangeService struct {
	pool    sync.Pool
	timeout time.Duration
	l       *slog.Logger
}

func newExchangeService(core Consensus, timeout time.Duration, l *slog.Logger) *exchangeService {
	svc := &exchangeService{timeout: timeout, l: l}
	svc.pool.New = func() any {
		return NewServerExchange(core)
	}
	return svc
}

func (svc *exchangeService) Exchange(ctx context.Context, req *model.Packet, res *model.Packet) error {
	if err := checkFraming(req); err != nil {
		svc.l.Warn("rejecting packet", slog.String("headers", req.Headers.String()), slog.Any("error", err))
		return err
	}
	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	e := svc.pool.Get().(*ServerExchange)
	defer func() {
		e.Reset()
		svc.pool.Put(e)
	}()

	out := make([]byte, model.ResultSize)
	headers, n, _, err := e.Process(ctx, req.Headers, req.Payload, remoteAddr(ctx), out)
	if err != nil {
		svc.l.Error("exchange failed", slog.String("headers", req.Headers.String()), slog.Any("error", err))
		return err
	}
	res.Headers = headers
	res.Payload = out[:n]
	return nil
}

func checkFraming(p *model.Packet) error {
	var size int
	switch p.Headers.Type {
	case model.Heartbeat:
		size = model.HeartbeatSize
	case model.Vote, model.PreVote:
		size = model.VoteSize
	case model.Resign:
		size = model.ResignSize
	case model.AppendEntries:
		size = model.AppendEntriesHeaderSize
	default:
		return nil
	}
	if len(p.Payload) < size {
		return fmt.Errorf("%w: %s: got %d bytes, want %d", ErrShortPayload, p.Headers.Type, len(p.Payload), size)
	}
	return nil
}

func remoteAddr(ctx context.Context) net.Addr {
	if conn, ok := ctx.Value(rpcx.RemoteConnContextKey).(net.Conn); ok {
		return conn.RemoteAddr()
	}
	return nil
}
