package server

import (
	"errors"
	"io"
	"os"

	"github.com/raft-exchange/model"
	"github.com/vmihailenco/msgpack/v5"
)

// state is the part of the server persisted on every change. It must be
// accessed with the server mutex held.
type state struct {
	CurrentTerm uint64        `msgpack:"currentTerm"` // latest term server has seen (initialized to 0 on first boot, increases monotonically)
	VotedFor    string        `msgpack:"votedFor"`    // endpoint of the candidate that received vote in current term (or empty if none)
	Log         []model.Entry `msgpack:"log"`         // first entry has index 1

	file *os.File // underlying file
}

func (s *state) getCurrentTerm() uint64 {
	return s.CurrentTerm
}

// setCurrentTerm moves to a newer term and forgets the vote.
func (s *state) setCurrentTerm(term uint64) {
	s.CurrentTerm = term
	s.VotedFor = ""
}

func (s *state) lastLogIndex() uint64 {
	return uint64(len(s.Log))
}

// termAt returns the term of the entry at index, 0 for index 0.
func (s *state) termAt(index uint64) (uint64, bool) {
	if index == 0 {
		return 0, true
	}
	if index > s.lastLogIndex() {
		return 0, false
	}
	return s.Log[index-1].Term, true
}

func (s *state) lastLogTerm() uint64 {
	t, _ := s.termAt(s.lastLogIndex())
	return t
}

func newState(file string) (*state, error) {
	st := new(state)
	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR|os.O_SYNC, 0o644)
	if err != nil {
		return nil, err
	}
	st.file = f
	raw, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	err = msgpack.Unmarshal(raw, st)
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, err
	}
	return st, nil
}

func (s *state) rewindFile() error {
	err := s.file.Truncate(0)
	if err != nil {
		return err
	}
	_, err = s.file.Seek(0, io.SeekStart)
	if err != nil {
		return err
	}
	return nil
}

func (s *state) write() error {
	if err := s.rewindFile(); err != nil {
		return err
	}
	raw, err := s.serialize()
	if err != nil {
		return err
	}
	_, err = s.file.Write(raw)
	if err != nil {
		return err
	}
	return nil
}

func (s *state) serialize() ([]byte, error) {
	return msgpack.Marshal(s)
}

func (s *state) close() error {
	return s.file.Close()
}
