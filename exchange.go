package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"

	"github.com/raft-exchange/model"
)

var (
	ErrNoPendingOperation = errors.New("no pending operation")
	ErrExchangeBusy       = errors.New("exchange already has a pending operation")
	ErrUnexpectedMessage  = errors.New("pending operation belongs to another message type")
	ErrUnknownMessage     = errors.New("unknown message type")
)

// operation is a consensus call started by a Begin phase and harvested
// by the matching End phase.
type operation struct {
	typ    model.MessageType
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// written by the call goroutine before done is closed
	result model.Result[bool]
	err    error
}

func (op *operation) wait(ctx context.Context) (model.Result[bool], error) {
	select {
	case <-op.done:
	case <-op.ctx.Done():
		select {
		case <-op.done:
		default:
			return model.Result[bool]{}, op.ctx.Err()
		}
	case <-ctx.Done():
		return model.Result[bool]{}, ctx.Err()
	}
	return op.result, op.err
}

// ServerExchange decodes one request, hands it to the consensus core and
// later encodes the outcome. It holds at most one pending operation and
// may be reused once that operation has been harvested or Reset.
type ServerExchange struct {
	core    Consensus
	pending atomic.Pointer[operation]
}

func NewServerExchange(core Consensus) *ServerExchange {
	return &ServerExchange{core: core}
}

// Pending reports whether an operation waits to be harvested.
func (e *ServerExchange) Pending() bool {
	return e.pending.Load() != nil
}

// Reset cancels and drops the pending operation, if any.
func (e *ServerExchange) Reset() {
	if op := e.pending.Swap(nil); op != nil {
		op.cancel()
	}
}

// Process runs the Begin and End phases for one packet.
func (e *ServerExchange) Process(ctx context.Context, headers model.PacketHeaders, payload []byte, sender net.Addr, out []byte) (model.PacketHeaders, int, bool, error) {
	var err error
	switch headers.Type {
	case model.Heartbeat:
		if err = e.BeginHeartbeat(ctx, payload, sender); err == nil {
			return e.EndHeartbeat(ctx, out)
		}
	case model.Vote:
		if err = e.BeginVote(ctx, payload, sender); err == nil {
			return e.EndVote(ctx, out)
		}
	case model.PreVote:
		if err = e.BeginPreVote(ctx, payload, sender); err == nil {
			return e.EndPreVote(ctx, out)
		}
	case model.Resign:
		if err = e.BeginResign(ctx, payload, sender); err == nil {
			return e.EndResign(ctx, out)
		}
	case model.AppendEntries:
		if err = e.BeginAppendEntries(ctx, payload, sender); err == nil {
			return e.EndAppendEntries(ctx, out)
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownMessage, headers.Type)
	}
	return model.PacketHeaders{}, 0, false, err
}

func (e *ServerExchange) begin(ctx context.Context, typ model.MessageType, call func(context.Context) (model.Result[bool], error)) error {
	opCtx, cancel := context.WithCancel(ctx)
	op := &operation{
		typ:    typ,
		ctx:    opCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if !e.pending.CompareAndSwap(nil, op) {
		cancel()
		return fmt.Errorf("%w: %s", ErrExchangeBusy, typ)
	}
	go func() {
		defer close(op.done)
		op.result, op.err = call(opCtx)
	}()
	return nil
}

// end detaches the pending operation and waits for it. Only one caller
// can ever observe a given operation.
func (e *ServerExchange) end(ctx context.Context, typ model.MessageType) (model.Result[bool], error) {
	op := e.pending.Swap(nil)
	if op == nil {
		return model.Result[bool]{}, fmt.Errorf("%w: %s", ErrNoPendingOperation, typ)
	}
	defer op.cancel()
	if op.typ != typ {
		return model.Result[bool]{}, fmt.Errorf("%w: pending %s, got %s", ErrUnexpectedMessage, op.typ, typ)
	}
	return op.wait(ctx)
}

func (e *ServerExchange) endResult(ctx context.Context, typ model.MessageType, out []byte) (model.PacketHeaders, int, bool, error) {
	r, err := e.end(ctx, typ)
	if err != nil {
		return model.PacketHeaders{}, 0, false, err
	}
	n := model.WriteResult(r, out)
	return model.NewHeaders(typ, model.Ack), n, false, nil
}

// withPort rebuilds the sender endpoint using the port it listens on;
// the transport only sees the address the request came from.
func withPort(addr net.Addr, port uint16) net.Addr {
	switch a := addr.(type) {
	case nil:
		return &net.TCPAddr{Port: int(port)}
	case *net.TCPAddr:
		return &net.TCPAddr{IP: a.IP, Port: int(port), Zone: a.Zone}
	case *net.UDPAddr:
		return &net.UDPAddr{IP: a.IP, Port: int(port), Zone: a.Zone}
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	ip, zone, _ := strings.Cut(host, "%")
	return &net.TCPAddr{IP: net.ParseIP(ip), Port: int(port), Zone: zone}
}
