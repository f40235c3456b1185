package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/patrickmn/go-cache"
	rpcx "github.com/smallnest/rpcx/server"

	"github.com/raft-exchange/config"
	"github.com/raft-exchange/db"
)

// ExchangeServicePath is the rpcx service the exchanges are served under.
const ExchangeServicePath = "Exchange"

const leaderKey = "leader"

var ErrStaleTerm = errors.New("term is older than the current term")

type role uint8

const (
	follower role = iota
	leader
)

func (r role) String() string {
	switch r {
	case follower:
		return "follower"
	case leader:
		return "leader"
	default:
		return fmt.Sprintf("unknown role: %d", r)
	}
}

// Server is the consensus core answering the exchanges of one node.
type Server struct {
	mu sync.Mutex

	id int
	l  *slog.Logger

	state *state
	role  role

	commitIndex atomic.Uint64 // index of highest log entry known to be committed (initialized to 0, increases monotonically)
	lastApplied atomic.Uint64 // index of highest log entry applied to state machine (initialized to 0, increases monotonically)

	sm db.StateMachine

	// endpoint of the current leader, expires after the election timeout
	leaders *cache.Cache

	rpc *rpcx.Server

	config struct {
		*config.Config
		node *config.Node
	}

	exitChan chan struct{}
	once     sync.Once
}

func (s *Server) logState() error {
	path := s.getUnderlyingFilePath()
	if path == "" {
		return errors.New("directory not specified in config")
	}
	if err := s.state.write(); err != nil {
		return err
	}
	return nil
}

func (s *Server) startRPCServer() error {
	rpcServer := rpcx.NewServer()
	svc := newExchangeService(s, s.config.RequestTimeout, s.l)
	if err := rpcServer.RegisterName(ExchangeServicePath, svc, ""); err != nil {
		return err
	}
	s.rpc = rpcServer
	addr := s.config.node.GetAddress()
	go func() {
		if err := rpcServer.Serve("tcp", addr); err != nil && !errors.Is(err, rpcx.ErrServerClosed) {
			s.l.Error("rpc server stopped", slog.Int("server", s.id), slog.Any("error", err))
		}
	}()
	return nil
}

func NewServer(id int, conf *config.Config) (*Server, error) {
	s, err := newServer(id, conf)
	if err != nil {
		return nil, err
	}
	if err := s.startRPCServer(); err != nil {
		s.state.close()
		return nil, err
	}
	return s, nil
}

func newServer(id int, conf *config.Config) (*Server, error) {
	node, err := conf.GetNode(id)
	if err != nil {
		return nil, err
	}
	s := &Server{
		id:       id,
		sm:       db.NewStateMachine(conf.StateMachineBytes),
		exitChan: make(chan struct{}),
	}
	s.config.Config = conf
	s.config.node = &node
	s.l = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.Level()})).
		With(slog.Int("server", id))
	s.leaders = cache.New(conf.ElectionTimeout, 2*conf.ElectionTimeout)
	if err := s.initInternal(); err != nil {
		return nil, err
	}
	return s, nil
}

// Listen blocks until the server is closed.
func (s *Server) Listen() {
	<-s.exitChan
}

func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		close(s.exitChan)
		s.mu.Lock()
		defer s.mu.Unlock()
		errs := []error{s.logState()}
		if s.rpc != nil {
			errs = append(errs, s.rpc.Close())
		}
		errs = append(errs, s.state.close())
		err = errors.Join(errs...)
	})
	return err
}

// BecomeLeader makes the server lead in term, which must not be older
// than the current term. A later resign or heartbeat steps it down.
func (s *Server) BecomeLeader(term uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.getCurrentTerm()
	if term < current {
		return fmt.Errorf("%w: %d < %d", ErrStaleTerm, term, current)
	}
	if term > current {
		s.state.setCurrentTerm(term)
		if err := s.logState(); err != nil {
			return err
		}
	}
	s.role = leader
	s.leaders.Delete(leaderKey)
	s.l.Info("leading", slog.Uint64("term", term))
	return nil
}

// IsLeader reports whether the server currently leads.
func (s *Server) IsLeader() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role == leader
}

// Addr is the address the exchange service listens on, nil before it is bound.
func (s *Server) Addr() net.Addr {
	if s.rpc == nil {
		return nil
	}
	return s.rpc.Address()
}

// Leader returns the endpoint of the leader heard from within the
// election timeout.
func (s *Server) Leader() (net.Addr, bool) {
	v, ok := s.leaders.Get(leaderKey)
	if !ok {
		return nil, false
	}
	addr, ok := v.(net.Addr)
	return addr, ok
}

func (s *Server) Term() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getCurrentTerm()
}

func (s *Server) CommitIndex() uint64 {
	return s.commitIndex.Load()
}

func (s *Server) StateMachine() db.StateMachine {
	return s.sm
}

// try to read state file from disk
func (s *Server) initInternal() error {
	if s.config.Dir == "" {
		return errors.New("directory not specified in config")
	}
	if _, err := os.Stat(s.config.Dir); os.IsNotExist(err) {
		// newly created directory for server
		err := s.ensureDir(s.config.Dir)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	st, err := newState(s.getUnderlyingFilePath())
	if err != nil {
		return err
	}
	s.state = st
	return nil
}

func (s *Server) ensureDir(path string) error {
	err := os.MkdirAll(path, os.ModePerm)
	if err != nil {
		return err
	}
	return nil
}

func (s *Server) getUnderlyingFilePath() string {
	name := func() string {
		return fmt.Sprintf("%v", s.id)
	}()
	if s.config.Dir == "" {
		return ""
	}
	return path.Join(s.config.Dir, name)
}
