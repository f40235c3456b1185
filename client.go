package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/raft-exchange/config"
	"github.com/raft-exchange/model"
)

var ErrUnexpectedResponse = errors.New("unexpected response")

// Client sends exchange requests to the other members of the cluster.
type Client struct {
	members members
	port    uint16 // port this node listens on
	l       *slog.Logger
}

func NewClient(self int, conf *config.Config) (*Client, error) {
	node, err := conf.GetNode(self)
	if err != nil {
		return nil, err
	}
	port, err := node.GetPort()
	if err != nil {
		return nil, err
	}
	return &Client{
		members: initMembers(conf, self),
		port:    port,
		l: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.Level()})).
			With(slog.Int("client", self)),
	}, nil
}

func (c *Client) Close() error {
	return c.members.close()
}

func (c *Client) Heartbeat(ctx context.Context, id int, req model.HeartbeatRequest) (model.Result[bool], error) {
	if req.RemotePort == 0 {
		req.RemotePort = c.port
	}
	return c.callResult(ctx, id, model.Heartbeat, req.Bytes())
}

func (c *Client) AppendEntries(ctx context.Context, id int, req model.AppendEntriesRequest) (model.Result[bool], error) {
	if req.RemotePort == 0 {
		req.RemotePort = c.port
	}
	payload, err := req.Encode()
	if err != nil {
		return model.Result[bool]{}, err
	}
	return c.callResult(ctx, id, model.AppendEntries, payload)
}

func (c *Client) RequestVote(ctx context.Context, id int, req model.VoteRequest) (model.Result[bool], error) {
	if req.RemotePort == 0 {
		req.RemotePort = c.port
	}
	return c.callResult(ctx, id, model.Vote, req.Bytes())
}

func (c *Client) RequestPreVote(ctx context.Context, id int, req model.VoteRequest) (model.Result[bool], error) {
	if req.RemotePort == 0 {
		req.RemotePort = c.port
	}
	return c.callResult(ctx, id, model.PreVote, req.Bytes())
}

func (c *Client) Resign(ctx context.Context, id int) (bool, error) {
	payload, err := c.call(ctx, id, model.Resign, model.EncodeResign(c.port))
	if err != nil {
		return false, err
	}
	if len(payload) < 1 {
		return false, fmt.Errorf("%w: empty resign reply", ErrUnexpectedResponse)
	}
	return model.ParseBool(payload), nil
}

func (c *Client) callResult(ctx context.Context, id int, typ model.MessageType, payload []byte) (model.Result[bool], error) {
	res, err := c.call(ctx, id, typ, payload)
	if err != nil {
		return model.Result[bool]{}, err
	}
	if len(res) < model.ResultSize {
		return model.Result[bool]{}, fmt.Errorf("%w: %d byte %s reply", ErrUnexpectedResponse, len(res), typ)
	}
	return model.ParseResult(res), nil
}

func (c *Client) call(ctx context.Context, id int, typ model.MessageType, payload []byte) ([]byte, error) {
	m, err := c.members.get(id)
	if err != nil {
		return nil, err
	}
	conn, err := m.conn()
	if err != nil {
		return nil, err
	}
	req := &model.Packet{Headers: model.NewHeaders(typ, model.NoFlowControl), Payload: payload}
	var res model.Packet
	if err := conn.Call(ctx, exchangeMethod, req, &res); err != nil {
		c.l.Debug("exchange call failed", slog.Int("member", id), slog.String("type", typ.String()), slog.Any("error", err))
		return nil, fmt.Errorf("%s to member %d: %w", typ, id, err)
	}
	if want := model.NewHeaders(typ, model.Ack); res.Headers != want {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedResponse, res.Headers, want)
	}
	return res.Payload, nil
}
