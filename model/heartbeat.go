package model

import (
	"encoding/binary"
	"fmt"
)

// HeartbeatSize is the length of an encoded heartbeat payload.
const HeartbeatSize = 2 + 4*8

// Sent by the leader to assert leadership and convey commit progress.
type HeartbeatRequest struct {
	RemotePort   uint16 // port the leader listens on
	Term         uint64 // leader’s term
	PrevLogIndex uint64 // index of log entry immediately preceding new ones
	PrevLogTerm  uint64 // term of prevLogIndex entry
	CommitIndex  uint64 // leader’s commitIndex
}

// ParseHeartbeat decodes a heartbeat payload. A payload shorter than
// HeartbeatSize is a framing bug and panics.
func ParseHeartbeat(b []byte) HeartbeatRequest {
	mustFit("heartbeat payload", b, HeartbeatSize)
	return HeartbeatRequest{
		RemotePort:   binary.LittleEndian.Uint16(b[0:2]),
		Term:         binary.LittleEndian.Uint64(b[2:10]),
		PrevLogIndex: binary.LittleEndian.Uint64(b[10:18]),
		PrevLogTerm:  binary.LittleEndian.Uint64(b[18:26]),
		CommitIndex:  binary.LittleEndian.Uint64(b[26:34]),
	}
}

func (r HeartbeatRequest) Encode(dst []byte) int {
	mustFit("heartbeat buffer", dst, HeartbeatSize)
	binary.LittleEndian.PutUint16(dst[0:2], r.RemotePort)
	binary.LittleEndian.PutUint64(dst[2:10], r.Term)
	binary.LittleEndian.PutUint64(dst[10:18], r.PrevLogIndex)
	binary.LittleEndian.PutUint64(dst[18:26], r.PrevLogTerm)
	binary.LittleEndian.PutUint64(dst[26:34], r.CommitIndex)
	return HeartbeatSize
}

func (r HeartbeatRequest) Bytes() []byte {
	b := make([]byte, HeartbeatSize)
	r.Encode(b)
	return b
}

func mustFit(what string, b []byte, size int) {
	if len(b) < size {
		panic(fmt.Sprintf("%s too short. Got %d bytes, want at least %d", what, len(b), size))
	}
}
