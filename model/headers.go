package model

import "fmt"

type MessageType uint8

const (
	None MessageType = iota
	Heartbeat
	Vote
	PreVote
	Resign
	AppendEntries
)

func (t MessageType) String() string {
	switch t {
	case None:
		return "none"
	case Heartbeat:
		return "heartbeat"
	case Vote:
		return "vote"
	case PreVote:
		return "pre-vote"
	case Resign:
		return "resign"
	case AppendEntries:
		return "append-entries"
	default:
		return fmt.Sprintf("unknown message type: %d", t)
	}
}

type FlowControl uint8

const (
	NoFlowControl FlowControl = iota
	Ack
	StreamEnd
	Cancel
)

func (f FlowControl) String() string {
	switch f {
	case NoFlowControl:
		return "none"
	case Ack:
		return "ack"
	case StreamEnd:
		return "stream-end"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown flow control: %d", f)
	}
}

// PacketHeaders tags a packet with its message type and flow control flag.
type PacketHeaders struct {
	Type MessageType `msgpack:"type"`
	Flow FlowControl `msgpack:"flow"`
}

func NewHeaders(t MessageType, f FlowControl) PacketHeaders {
	return PacketHeaders{Type: t, Flow: f}
}

func (h PacketHeaders) String() string {
	return fmt.Sprintf("%s/%s", h.Type, h.Flow)
}

// Packet is the envelope exchanged over the transport.
type Packet struct {
	Headers PacketHeaders `msgpack:"headers"`
	Payload []byte        `msgpack:"payload"`
}
