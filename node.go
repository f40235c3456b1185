package server

import (
	"errors"
	"fmt"
	"sync"

	rpcx "github.com/smallnest/rpcx/client"

	"github.com/raft-exchange/config"
)

type members map[int]*member

// initMembers lists every configured node except self.
func initMembers(conf *config.Config, self int) members {
	res := make(members, len(conf.Nodes))
	for i := range conf.Nodes {
		if conf.Nodes[i].Id == self {
			continue
		}
		node := conf.Nodes[i]
		res[node.Id] = &member{Node: &node}
	}
	return res
}

func (ms members) get(id int) (*member, error) {
	m, ok := ms[id]
	if !ok {
		return nil, fmt.Errorf("unknown member %d", id)
	}
	return m, nil
}

func (ms members) close() error {
	var errs []error
	for _, m := range ms {
		errs = append(errs, m.close())
	}
	return errors.Join(errs...)
}

type member struct {
	mu sync.Mutex
	*config.Node
}

func (m *member) Addr() string {
	return m.GetAddress()
}

// conn dials the member on first use.
func (m *member) conn() (rpcx.XClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Conn == nil {
		if err := m.Connect(ExchangeServicePath); err != nil {
			return nil, fmt.Errorf("connect to %s: %w", m.Addr(), err)
		}
	}
	return m.Conn, nil
}

func (m *member) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Node.Close()
}
