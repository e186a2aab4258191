package store

import (
	"errors"
)

var (
	ErrNotFound = errors.New("not found in store")

	// ErrStaleResponse is returned when RejectStaleFetches discarded a result.
	ErrStaleResponse = errors.New("stale response discarded")
)

type userMessager interface {
	UserMessage() string
}

// failureMessage picks the text recorded in a store's error field: the
// server-supplied message when there is one, the per-operation default otherwise.
func failureMessage(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// opStatus is the loading flag and error string exposed by every store.
type opStatus struct {
	inflight int
	err      string
}

func (s *opStatus) begin() {
	s.inflight++
	s.err = ""
}

func (s *opStatus) end() {
	if s.inflight > 0 {
		s.inflight--
	}
}

func (s *opStatus) fail(msg string) {
	s.end()
	s.err = msg
}

// sequencer numbers requests per scope so late responses can be recognised.
type sequencer struct {
	issued  map[string]uint64
	applied map[string]uint64
}

func newSequencer() sequencer {
	return sequencer{
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
	}
}

func (s *sequencer) next(scope string) uint64 {
	s.issued[scope]++
	return s.issued[scope]
}

// accept reports whether the response to request seq may be applied.
func (s *sequencer) accept(scope string, seq uint64, rejectStale bool) bool {
	if rejectStale && seq < s.applied[scope] {
		return false
	}
	if seq > s.applied[scope] {
		s.applied[scope] = seq
	}
	return true
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func prependID(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, id)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
