package model

import "encoding/binary"

// ResultSize is the length of an encoded Result[bool].
const ResultSize = 8 + 1

// Result is the responder's current term paired with the outcome.
type Result[T any] struct {
	Term  uint64 // currentTerm, for the sender to update itself
	Value T
}

// WriteResult encodes r into dst and returns the number of bytes written.
func WriteResult(r Result[bool], dst []byte) int {
	mustFit("result buffer", dst, ResultSize)
	binary.LittleEndian.PutUint64(dst[0:8], r.Term)
	dst[8] = boolByte(r.Value)
	return ResultSize
}

func ParseResult(b []byte) Result[bool] {
	mustFit("result payload", b, ResultSize)
	return Result[bool]{
		Term:  binary.LittleEndian.Uint64(b[0:8]),
		Value: b[8] != 0,
	}
}

// WriteBool encodes a single flag, used by resign responses.
func WriteBool(v bool, dst []byte) int {
	mustFit("bool buffer", dst, 1)
	dst[0] = boolByte(v)
	return 1
}

func ParseBool(b []byte) bool {
	mustFit("bool payload", b, 1)
	return b[0] != 0
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
