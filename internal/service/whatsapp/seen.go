package whatsapp

import (
	"sync"
	"time"
)

// seenMessages remembers recently handled message ids so webhook redeliveries
// are answered only once.
type seenMessages struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
	seen map[string]time.Time
}

func newSeenMessages(ttl time.Duration) *seenMessages {
	return &seenMessages{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

// firstTime records id and reports whether it had not been seen within the ttl.
func (s *seenMessages) firstTime(id string) bool {
	if id == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, at := range s.seen {
		if now.Sub(at) > s.ttl {
			delete(s.seen, key)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = now
	return true
}
