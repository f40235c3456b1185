package server

import (
	"context"
	"net"

	"github.com/raft-exchange/model"
)

// Consensus is the part of the Raft core the exchanges feed. A rejected
// request is a normal false result; errors are faults.
type Consensus interface {
	ReceiveEntries(ctx context.Context, sender net.Addr, term uint64, entries EntryProducer, prevLogIndex, prevLogTerm, commitIndex uint64) (model.Result[bool], error)
	ReceiveVote(ctx context.Context, sender net.Addr, term, lastLogIndex, lastLogTerm uint64) (model.Result[bool], error)
	ReceivePreVote(ctx context.Context, sender net.Addr, term, lastLogIndex, lastLogTerm uint64) (model.Result[bool], error)
	ReceiveResign(ctx context.Context, sender net.Addr) (bool, error)
}
