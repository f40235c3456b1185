package db

import (
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultMaxBytes is used when no positive capacity is given.
const DefaultMaxBytes = 32 << 20

type StateMachine interface {
	Apply([]byte) ([]byte, error)
	// Get reads the applied state directly; reads do not go through the log.
	Get(key []byte) ([]byte, bool)
}

type Op uint8

const (
	Set Op = iota + 1
	Delete
)

// Command is the payload of a log entry.
type Command struct {
	Op    Op     `msgpack:"op"`
	Key   []byte `msgpack:"key"`
	Value []byte `msgpack:"value,omitempty"`
}

func EncodeCommand(c Command) ([]byte, error) {
	return msgpack.Marshal(c)
}

type db struct {
	c *fastcache.Cache
}

func (d *db) set(key []byte, value []byte) {
	d.c.Set(key, value)
}

func (d *db) Get(key []byte) ([]byte, bool) {
	return d.c.HasGet(nil, key)
}

func (d *db) Apply(cmd []byte) ([]byte, error) {
	var c Command
	if err := msgpack.Unmarshal(cmd, &c); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	switch c.Op {
	case Set:
		d.set(c.Key, c.Value)
		return nil, nil
	case Delete:
		d.c.Del(c.Key)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command op %d", c.Op)
	}
}

func NewStateMachine(maxBytes int) StateMachine {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	c := fastcache.New(maxBytes)
	return &db{
		c: c,
	}
}
