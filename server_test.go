package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raft-exchange/config"
	"github.com/raft-exchange/model"
)

// startServer serves node 1 over rpcx and returns a client acting as node 2.
func startServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	conf := testConfig(t.TempDir())
	s, err := NewServer(1, conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	go s.Listen()

	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	port := s.Addr().(*net.TCPAddr).Port

	conf.Nodes = append(conf.Nodes, config.Node{Id: 2, Address: "127.0.0.1", Port: "2000"})
	conf.Nodes[0].Port = strconv.Itoa(port)
	c, err := NewClient(2, conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func Test_NewServer(t *testing.T) {
	s, c := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Heartbeat(ctx, 1, model.HeartbeatRequest{Term: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Result[bool]{Term: 3, Value: true}, res)

	l, ok := s.Leader()
	require.True(t, ok)
	_, lport, err := net.SplitHostPort(l.String())
	require.NoError(t, err)
	assert.Equal(t, "2000", lport)

	res, err = c.AppendEntries(ctx, 1, model.AppendEntriesRequest{
		HeartbeatRequest: model.HeartbeatRequest{Term: 3},
		Entries:          []model.Entry{{Term: 3, Command: []byte("noop")}},
	})
	require.NoError(t, err)
	assert.True(t, res.Value)

	res, err = c.RequestPreVote(ctx, 1, model.VoteRequest{Term: 4, LastLogIndex: 1, LastLogTerm: 3})
	require.NoError(t, err)
	assert.False(t, res.Value)

	res, err = c.RequestVote(ctx, 1, model.VoteRequest{Term: 4, LastLogIndex: 1, LastLogTerm: 3})
	require.NoError(t, err)
	assert.Equal(t, model.Result[bool]{Term: 4, Value: true}, res)

	resigned, err := c.Resign(ctx, 1)
	require.NoError(t, err)
	assert.False(t, resigned)

	_, err = c.Heartbeat(ctx, 7, model.HeartbeatRequest{Term: 3})
	assert.Error(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func Test_Resign_RoundTrip(t *testing.T) {
	s, c := startServer(t)
	require.NoError(t, s.BecomeLeader(2))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resigned, err := c.Resign(ctx, 1)
	require.NoError(t, err)
	assert.True(t, resigned)
	assert.False(t, s.IsLeader())

	resigned, err = c.Resign(ctx, 1)
	require.NoError(t, err)
	assert.False(t, resigned)
}

func Test_Close_ReleasesOnPersistFailure(t *testing.T) {
	s, _ := startServer(t)
	addr := s.Addr().String()

	// persisting the state now fails
	require.NoError(t, s.state.file.Close())

	assert.Error(t, s.Close())
	assert.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			return true
		}
		conn.Close()
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func Test_checkFraming(t *testing.T) {
	err := checkFraming(&model.Packet{Headers: model.NewHeaders(model.Heartbeat, model.NoFlowControl), Payload: make([]byte, 3)})
	assert.ErrorIs(t, err, ErrShortPayload)

	err = checkFraming(&model.Packet{Headers: model.NewHeaders(model.Heartbeat, model.NoFlowControl), Payload: testHeartbeat.Bytes()})
	assert.NoError(t, err)

	err = checkFraming(&model.Packet{Headers: model.NewHeaders(model.Resign, model.NoFlowControl)})
	assert.ErrorIs(t, err, ErrShortPayload)
}

func Test_exchangeService(t *testing.T) {
	core := &stubCore{currentTerm: 3}
	svc := newExchangeService(core, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var res model.Packet
	req := &model.Packet{Headers: model.NewHeaders(model.Heartbeat, model.NoFlowControl), Payload: testHeartbeat.Bytes()}
	require.NoError(t, svc.Exchange(context.Background(), req, &res))
	assert.Equal(t, model.NewHeaders(model.Heartbeat, model.Ack), res.Headers)
	assert.Equal(t, model.Result[bool]{Term: 3, Value: true}, model.ParseResult(res.Payload))
	// no connection in the context
	assert.Equal(t, ":5000", core.sender.String())

	req.Payload = req.Payload[:4]
	assert.ErrorIs(t, svc.Exchange(context.Background(), req, &res), ErrShortPayload)

	core.err = context.DeadlineExceeded
	req.Payload = testHeartbeat.Bytes()
	assert.ErrorIs(t, svc.Exchange(context.Background(), req, &res), context.DeadlineExceeded)
}
