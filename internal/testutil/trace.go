package testutil

import (
	"fmt"
	"sync"
)

// FixedTraceID returns a generator that yields id on every call.
//
// The same command run with the same generator produces byte-identical
// JSON responses and log lines.
func FixedTraceID(id string) func() string {
	if id == "" {
		id = "test-trace-default"
	}
	return func() string { return id }
}

// TraceIDSequence hands out numbered trace IDs ("prefix-0001", ...).
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type TraceIDSequence struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewTraceIDSequence creates a sequence. The first call to Next returns
// prefix-0001.
func NewTraceIDSequence(prefix string) *TraceIDSequence {
	return &TraceIDSequence{prefix: prefix}
}

// Next increments the sequence and returns the next ID.
func (s *TraceIDSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%04d", s.prefix, s.seq)
}

// Count returns how many IDs have been issued.
func (s *TraceIDSequence) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset restarts the sequence so the next call to Next returns prefix-0001.
func (s *TraceIDSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
