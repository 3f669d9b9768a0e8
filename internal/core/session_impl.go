package core

import (
	"sync"
	"time"
)

// signalSession is the per-call relay buffer.
// All fields are guarded by mu. Once evicted is set the session is detached
// from the store and rejects writes.
type signalSession struct {
	mu          sync.Mutex
	offer       Blob
	answer      Blob
	candidates  []Blob
	lastTouched time.Time
	evicted     bool
}

// apply runs fn under the entry lock unless the session was evicted.
// ran reports whether fn was called.
func (s *signalSession) apply(now time.Time, fn func(*signalSession) error) (ran bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted {
		return false, nil
	}
	if err := fn(s); err != nil {
		return true, err
	}
	s.lastTouched = now
	return true, nil
}

// markEvicted detaches the session. With idleBefore set it only does so
// when the session was last written before that instant.
func (s *signalSession) markEvicted(idleBefore time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !idleBefore.IsZero() && !s.lastTouched.Before(idleBefore) {
		return false
	}
	s.evicted = true
	return true
}

func (s *signalSession) snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := SessionSnapshot{
		Offer:       cloneBlob(s.offer),
		Answer:      cloneBlob(s.answer),
		Candidates:  make([]Blob, 0, len(s.candidates)),
		LastTouched: s.lastTouched,
	}
	for _, c := range s.candidates {
		out.Candidates = append(out.Candidates, cloneBlob(c))
	}
	return out
}

func (s *signalSession) touchedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched.Before(t)
}

func cloneBlob(b Blob) Blob {
	if len(b) == 0 {
		return nil
	}
	out := make(Blob, len(b))
	copy(out, b)
	return out
}
