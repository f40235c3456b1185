package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/patrickmn/go-cache"

	"github.com/raft-exchange/model"
)

var _ Consensus = (*Server)(nil)

func (s *Server) ReceiveEntries(ctx context.Context, sender net.Addr, term uint64, entries EntryProducer, prevLogIndex, prevLogTerm, commitIndex uint64) (model.Result[bool], error) {
	if err := ctx.Err(); err != nil {
		return model.Result[bool]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.getCurrentTerm()
	if term < current {
		return model.Result[bool]{Term: current}, nil
	}

	dirty := false
	if term > current {
		s.state.setCurrentTerm(term)
		dirty = true
	}
	if s.role != follower {
		s.l.Info("stepping down", slog.String("role", s.role.String()), slog.Uint64("term", term))
		s.role = follower
	}
	s.leaders.Set(leaderKey, sender, cache.DefaultExpiration)

	if t, ok := s.state.termAt(prevLogIndex); !ok || t != prevLogTerm {
		if err := s.persist(dirty); err != nil {
			return model.Result[bool]{}, err
		}
		s.l.Debug("log mismatch", slog.Uint64("prevLogIndex", prevLogIndex), slog.Uint64("prevLogTerm", prevLogTerm))
		return model.Result[bool]{Term: term}, nil
	}

	index := prevLogIndex
	for e, ok := entries.Next(); ok; e, ok = entries.Next() {
		index++
		if t, ok := s.state.termAt(index); ok {
			if t == e.Term {
				continue
			}
			// conflicting suffix
			s.state.Log = s.state.Log[:index-1]
		}
		s.state.Log = append(s.state.Log, e)
		dirty = true
	}
	if err := s.persist(dirty); err != nil {
		return model.Result[bool]{}, err
	}

	if commit := min(commitIndex, index); commit > s.commitIndex.Load() {
		s.commitIndex.Store(commit)
		s.applyCommitted()
	}
	return model.Result[bool]{Term: term, Value: true}, nil
}

func (s *Server) ReceiveVote(ctx context.Context, sender net.Addr, term, lastLogIndex, lastLogTerm uint64) (model.Result[bool], error) {
	if err := ctx.Err(); err != nil {
		return model.Result[bool]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.getCurrentTerm()
	if term < current {
		return model.Result[bool]{Term: current}, nil
	}

	dirty := false
	if term > current {
		s.state.setCurrentTerm(term)
		s.role = follower
		dirty = true
	}

	var (
		candidateId   = sender.String()
		votedFor      = s.state.VotedFor
		votedForMatch = votedFor == "" || votedFor == candidateId
		granted       = votedForMatch && s.logUpToDate(lastLogIndex, lastLogTerm)
	)
	if granted && votedFor == "" {
		s.state.VotedFor = candidateId
		dirty = true
	}
	if err := s.persist(dirty); err != nil {
		s.l.Error("error while logging state", slog.Any("error", err))
		return model.Result[bool]{}, err
	}
	return model.Result[bool]{Term: term, Value: granted}, nil
}

// ReceivePreVote answers whether a vote would be granted, without
// touching the term or the vote.
func (s *Server) ReceivePreVote(ctx context.Context, sender net.Addr, term, lastLogIndex, lastLogTerm uint64) (model.Result[bool], error) {
	if err := ctx.Err(); err != nil {
		return model.Result[bool]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.getCurrentTerm()
	if term < current {
		return model.Result[bool]{Term: current}, nil
	}
	if _, ok := s.leaders.Get(leaderKey); ok {
		return model.Result[bool]{Term: current}, nil
	}
	return model.Result[bool]{Term: current, Value: s.logUpToDate(lastLogIndex, lastLogTerm)}, nil
}

// ReceiveResign makes a leader step down.
func (s *Server) ReceiveResign(ctx context.Context, sender net.Addr) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != leader {
		return false, nil
	}
	s.l.Info("resigning", slog.Any("requestedBy", sender))
	s.role = follower
	return true, nil
}

func (s *Server) logUpToDate(lastLogIndex, lastLogTerm uint64) bool {
	myIndex, myTerm := s.state.lastLogIndex(), s.state.lastLogTerm()
	return lastLogTerm > myTerm || (lastLogTerm == myTerm && lastLogIndex >= myIndex)
}

func (s *Server) persist(dirty bool) error {
	if !dirty {
		return nil
	}
	return s.logState()
}

// must be called with s.mu held
func (s *Server) applyCommitted() {
	commit := s.commitIndex.Load()
	for applied := s.lastApplied.Load(); applied < commit; applied++ {
		e := s.state.Log[applied]
		if _, err := s.sm.Apply(e.Command); err != nil {
			s.l.Error("error while applying entry", slog.Uint64("index", applied+1), slog.Any("error", err))
		}
		s.lastApplied.Store(applied + 1)
	}
}
