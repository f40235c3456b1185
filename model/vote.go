package model

import "encoding/binary"

const (
	VoteSize   = 2 + 3*8
	ResignSize = 2
)

// Invoked by candidates to gather votes (and pre-votes)
type VoteRequest struct {
	RemotePort   uint16 // port the candidate listens on
	Term         uint64 // candidate’s term
	LastLogIndex uint64 // index of candidate’s last log entry
	LastLogTerm  uint64 // term of candidate’s last log entry
}

func ParseVote(b []byte) VoteRequest {
	mustFit("vote payload", b, VoteSize)
	return VoteRequest{
		RemotePort:   binary.LittleEndian.Uint16(b[0:2]),
		Term:         binary.LittleEndian.Uint64(b[2:10]),
		LastLogIndex: binary.LittleEndian.Uint64(b[10:18]),
		LastLogTerm:  binary.LittleEndian.Uint64(b[18:26]),
	}
}

func (r VoteRequest) Encode(dst []byte) int {
	mustFit("vote buffer", dst, VoteSize)
	binary.LittleEndian.PutUint16(dst[0:2], r.RemotePort)
	binary.LittleEndian.PutUint64(dst[2:10], r.Term)
	binary.LittleEndian.PutUint64(dst[10:18], r.LastLogIndex)
	binary.LittleEndian.PutUint64(dst[18:26], r.LastLogTerm)
	return VoteSize
}

func (r VoteRequest) Bytes() []byte {
	b := make([]byte, VoteSize)
	r.Encode(b)
	return b
}

// ParseResign returns the port the resign requester listens on.
func ParseResign(b []byte) uint16 {
	mustFit("resign payload", b, ResignSize)
	return binary.LittleEndian.Uint16(b[0:2])
}

func EncodeResign(port uint16) []byte {
	b := make([]byte, ResignSize)
	binary.LittleEndian.PutUint16(b, port)
	return b
}

/*
	Receiver implementation:
	1. Reply false if term < currentTerm (§5.1)
	2. If votedFor is null or candidateId, and candidate’s log is at
	least as up-to-date as receiver’s log, grant vote (§5.2, §5.4)
*/
