package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	rpcx "github.com/smallnest/rpcx/client"
)

const (
	DefaultRequestTimeout  = 500 * time.Millisecond
	DefaultElectionTimeout = 1500 * time.Millisecond
	// DefaultStateMachineBytes is the fastcache capacity of the state machine.
	DefaultStateMachineBytes = 32 << 20
)

type Node struct {
	Id      int    `yaml:"id"`
	Address string `yaml:"address"`
	Port    string `yaml:"port"`

	Conn rpcx.XClient `yaml:"-"`
}

// Connect dials the node's exchange service.
func (n *Node) Connect(servicePath string) error {
	addr := n.GetAddress()
	d, err := rpcx.NewPeer2PeerDiscovery("tcp@"+addr, "")
	if err != nil {
		return err
	}
	n.Conn = rpcx.NewXClient(servicePath, rpcx.Failfast, rpcx.RandomSelect, d, rpcx.DefaultOption)
	return nil
}

func (n *Node) Close() error {
	if n.Conn == nil {
		return nil
	}
	err := n.Conn.Close()
	n.Conn = nil
	return err
}

func (n *Node) GetAddress() string {
	return net.JoinHostPort(n.Address, n.Port)
}

func (n *Node) GetPort() (uint16, error) {
	p, err := strconv.ParseUint(n.Port, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("node %d: invalid port %q: %w", n.Id, n.Port, err)
	}
	return uint16(p), nil
}

type Config struct {
	Dir               string        `yaml:"dir"`
	LogLevel          string        `yaml:"logLevel"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	ElectionTimeout   time.Duration `yaml:"electionTimeout"`
	StateMachineBytes int           `yaml:"stateMachineBytes"` // fastcache capacity of the state machine
	Nodes             []Node        `yaml:"nodes"`
}

func (c *Config) GetNode(id int) (Node, error) {
	for _, n := range c.Nodes {
		if n.Id == id {
			return n, nil
		}
	}
	return Node{}, errors.New("config not found")
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c *Config) setDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ElectionTimeout <= 0 {
		c.ElectionTimeout = DefaultElectionTimeout
	}
	if c.StateMachineBytes <= 0 {
		c.StateMachineBytes = DefaultStateMachineBytes
	}
}

func ReadConfig(file string) (*Config, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var c Config
	err = yaml.Unmarshal(raw, &c)
	if err != nil {
		return nil, err
	}
	c.setDefaults()
	return &c, nil
}
