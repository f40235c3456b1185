package model

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// AppendEntriesHeaderSize covers the heartbeat prefix and the block checksum.
const AppendEntriesHeaderSize = HeartbeatSize + 8

var ErrCorruptEntries = errors.New("corrupt entries block")

type Entry struct {
	Term    uint64 `msgpack:"term"`
	Command []byte `msgpack:"command"`
}

// Invoked by leader to replicate log entries. The heartbeat fields are
// encoded first so a follower can read them without touching the block.
type AppendEntriesRequest struct {
	HeartbeatRequest
	Entries []Entry // log entries to store (empty for heartbeat; may send more than one for efficiency)
}

// Encode lays out the heartbeat prefix, an xxhash64 of the block and the
// snappy-compressed msgpack block of entries.
func (r AppendEntriesRequest) Encode() ([]byte, error) {
	block, err := msgpack.Marshal(r.Entries)
	if err != nil {
		return nil, err
	}
	compressed := snappy.Encode(nil, block)
	b := make([]byte, AppendEntriesHeaderSize+len(compressed))
	r.HeartbeatRequest.Encode(b)
	binary.LittleEndian.PutUint64(b[HeartbeatSize:AppendEntriesHeaderSize], xxhash.Sum64(compressed))
	copy(b[AppendEntriesHeaderSize:], compressed)
	return b, nil
}

// ParseAppendEntries decodes an append entries payload. Like ParseHeartbeat
// it panics on a payload shorter than the fixed header; a damaged entries
// block is reported as ErrCorruptEntries.
func ParseAppendEntries(b []byte) (AppendEntriesRequest, error) {
	mustFit("append entries payload", b, AppendEntriesHeaderSize)
	req := AppendEntriesRequest{HeartbeatRequest: ParseHeartbeat(b)}
	compressed := b[AppendEntriesHeaderSize:]
	if sum := binary.LittleEndian.Uint64(b[HeartbeatSize:AppendEntriesHeaderSize]); sum != xxhash.Sum64(compressed) {
		return req, fmt.Errorf("%w: checksum mismatch", ErrCorruptEntries)
	}
	block, err := snappy.Decode(nil, compressed)
	if err != nil {
		return req, fmt.Errorf("%w: %w", ErrCorruptEntries, err)
	}
	if err := msgpack.Unmarshal(block, &req.Entries); err != nil {
		return req, fmt.Errorf("%w: %w", ErrCorruptEntries, err)
	}
	return req, nil
}

/*
	Receiver implementation:
		1. Reply false if term < currentTerm (§5.1)
		2. Reply false if log doesn’t contain an entry at prevLogIndex
		whose term matches prevLogTerm (§5.3)
		3. If an existing entry conflicts with a new one (same index
		but different terms), delete the existing entry and all that
		follow it (§5.3)
		4. Append any new entries not already in the log
		5. If leaderCommit > commitIndex, set commitIndex =
		min(leaderCommit, index of last new entry)
*/
