package dashboard

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gyeh/denial-dash/internal/ledger"
)

// CookieName carries the session ID.
const CookieName = "denial_dash_session"

// Session is one visitor's private ledger. Records is never mutated after the
// session is created.
type Session struct {
	ID       string
	Records  []ledger.DenialRecord
	Created  time.Time
	lastSeen time.Time
}

// SessionStore hands out isolated per-visitor ledgers and evicts idle ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	seed     int64
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions are generated with seed and
// expire after ttl without a request.
func NewSessionStore(seed int64, ttl time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		seed:     seed,
		ttl:      ttl,
		now:      now,
	}
}

// Get returns the live session for id, or a freshly generated one when id is
// empty, unknown or expired. The second value is true for new sessions.
func (s *SessionStore) Get(id string) (*Session, bool) {
	now := s.now()

	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && now.Sub(sess.lastSeen) <= s.ttl {
		sess.lastSeen = now
		s.mu.Unlock()
		return sess, false
	}
	s.mu.Unlock()

	// Generation happens outside the lock.
	sess := &Session{
		ID:       uuid.NewString(),
		Records:  ledger.Generate(s.seed, now),
		Created:  now,
		lastSeen: now,
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log.Printf("session created id=%s rows=%d", sess.ID, len(sess.Records))
	return sess, true
}

// Len returns the number of tracked sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops every session idle for longer than the TTL and returns how many
// were removed.
func (s *SessionStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps every interval until ctx is cancelled.
func (s *SessionStore) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("sessions evicted count=%d remaining=%d", n, s.Len())
			}
		}
	}
}

// session resolves the request's session and refreshes the cookie.
func (s *SessionStore) session(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}
	sess, _ := s.Get(id)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return sess
}
