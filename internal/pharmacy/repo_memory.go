package pharmacy

import (
	"context"
	"sync"
	"time"
)

// MemoryOrderRepo is an in-memory OrderRepository for tests.
type MemoryOrderRepo struct {
	mu     sync.Mutex
	orders map[string]Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{orders: map[string]Order{}}
}

func (r *MemoryOrderRepo) CreateOrder(ctx context.Context, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *MemoryOrderRepo) GetOrder(ctx context.Context, id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryOrderRepo) Orders() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}

// SessionStore keeps conversation state per phone number. Sessions are
// process-local: a restart resets every customer to the menu, which is
// acceptable for this surface.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{sessions: map[string]Session{}, ttl: ttl}
}

// Get returns the session for a phone number, dropping it first if it
// has been idle past the TTL.
func (s *SessionStore) Get(phone string, now time.Time) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[phone]
	if !ok {
		return Session{}, false
	}
	if now.Sub(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, phone)
		return Session{}, false
	}
	return sess, true
}

func (s *SessionStore) Put(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.PhoneNumber] = sess
}

func (s *SessionStore) Delete(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
}
