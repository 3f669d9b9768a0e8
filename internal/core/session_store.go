package core

import (
	"sync"
	"time"

	"github.com/dkeye/Messenger/internal/domain"
	"github.com/rs/zerolog/log"
)

// MemorySignalStore is a threadsafe in-memory SignalStore.
// The map lock only guards membership; each session has its own lock so
// writes for different calls never contend.
type MemorySignalStore struct {
	mu            sync.RWMutex
	sessions      map[domain.CallID]*signalSession
	maxCandidates int
	now           func() time.Time
}

type SignalStoreOption func(*MemorySignalStore)

// WithMaxCandidates bounds the candidate list of each session. Zero means unbounded.
func WithMaxCandidates(n int) SignalStoreOption {
	return func(s *MemorySignalStore) { s.maxCandidates = n }
}

func WithClock(now func() time.Time) SignalStoreOption {
	return func(s *MemorySignalStore) { s.now = now }
}

func NewMemorySignalStore(opts ...SignalStoreOption) *MemorySignalStore {
	s := &MemorySignalStore{
		sessions: make(map[domain.CallID]*signalSession),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ SignalStore = (*MemorySignalStore)(nil)

func (s *MemorySignalStore) getOrCreate(id domain.CallID) *signalSession {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = &signalSession{lastTouched: s.now()}
	s.sessions[id] = sess
	log.Debug().Str("module", "core.signal").Str("call_id", string(id)).Msg("session created")
	return sess
}

func (s *MemorySignalStore) get(id domain.CallID) (*signalSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// update applies fn to the live session of id. A session evicted between
// lookup and locking is detached, so the write is retried on a fresh one.
func (s *MemorySignalStore) update(id domain.CallID, fn func(*signalSession) error) error {
	for {
		ran, err := s.getOrCreate(id).apply(s.now(), fn)
		if ran {
			return err
		}
	}
}

func (s *MemorySignalStore) SetOffer(id domain.CallID, offer Blob) {
	_ = s.update(id, func(sess *signalSession) error {
		sess.offer = cloneBlob(offer)
		return nil
	})
}

func (s *MemorySignalStore) SetAnswer(id domain.CallID, answer Blob) {
	_ = s.update(id, func(sess *signalSession) error {
		sess.answer = cloneBlob(answer)
		return nil
	})
}

func (s *MemorySignalStore) AppendCandidate(id domain.CallID, candidate Blob) error {
	err := s.update(id, func(sess *signalSession) error {
		if s.maxCandidates > 0 && len(sess.candidates) >= s.maxCandidates {
			return domain.ErrCandidateLimit
		}
		sess.candidates = append(sess.candidates, cloneBlob(candidate))
		return nil
	})
	if err != nil {
		log.Warn().Str("module", "core.signal").Str("call_id", string(id)).Int("limit", s.maxCandidates).Msg("candidate limit reached")
	}
	return err
}

// GetSession returns a copy of the session. Unknown ids yield an empty snapshot.
func (s *MemorySignalStore) GetSession(id domain.CallID) SessionSnapshot {
	sess, ok := s.get(id)
	if !ok {
		return SessionSnapshot{Candidates: []Blob{}}
	}
	return sess.snapshot()
}

func (s *MemorySignalStore) Evict(id domain.CallID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	sess.markEvicted(time.Time{})
	delete(s.sessions, id)
	log.Debug().Str("module", "core.signal").Str("call_id", string(id)).Msg("session evicted")
}

// Idle lists the sessions last written before olderThan.
func (s *MemorySignalStore) Idle(olderThan time.Time) []domain.CallID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []domain.CallID
	for id, sess := range s.sessions {
		if sess.touchedBefore(olderThan) {
			ids = append(ids, id)
		}
	}
	return ids
}

// EvictIdle evicts id only if it is still idle since olderThan, so a write
// landing after Idle keeps the session.
func (s *MemorySignalStore) EvictIdle(id domain.CallID, olderThan time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.markEvicted(olderThan) {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *MemorySignalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
