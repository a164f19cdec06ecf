package memory

import (
	"context"
	"sync"

	"github.com/menu-planning/go-menuplan"
)

type sessionState int

const (
	sessionIdle sessionState = iota
	sessionActive
	sessionClosed
)

// participant is a repository taking part in a session commit.
type participant interface {
	// check runs under the db write lock before anything is applied.
	check() error
	// apply runs under the db write lock once every check passed.
	apply()
	// reset drops staged writes.
	reset()
}

// Session is an in-memory unit of work.
// Create one per command or event handler; a closed session cannot be reopened.
type Session struct {
	db *DB

	mu           sync.Mutex
	state        sessionState
	committed    bool
	participants []participant
	seen         []menuplan.Aggregate
	seenKeys     map[string]bool
}

var _ menuplan.UnitOfWork = (*Session)(nil)

// NewSession creates a session over db. Attach repositories with NewRepository.
func NewSession(db *DB) *Session {
	return &Session{
		db:       db,
		seenKeys: make(map[string]bool),
	}
}

// Begin opens the session.
func (s *Session) Begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessionIdle {
		return menuplan.ErrUnitOfWorkClosed
	}
	s.state = sessionActive
	return nil
}

// Commit writes every staged aggregate of every repository atomically.
// It fails without writing when ctx is done, so work abandoned on a
// deadline never becomes visible.
func (s *Session) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessionActive {
		return menuplan.ErrUnitOfWorkClosed
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, p := range s.participants {
		if err := p.check(); err != nil {
			return err
		}
	}
	for _, p := range s.participants {
		p.apply()
	}
	s.committed = true
	return nil
}

// Rollback drops every staged write.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessionActive {
		return menuplan.ErrUnitOfWorkClosed
	}
	s.rollback()
	return nil
}

// Close ends the session, rolling back unless Commit succeeded.
// Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == sessionActive && !s.committed {
		s.rollback()
	}
	s.state = sessionClosed
	return nil
}

// Committed reports whether Commit succeeded.
func (s *Session) Committed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// CollectEvents drains the events of every aggregate seen by any
// repository of the session, in first-seen order.
func (s *Session) CollectEvents() []menuplan.Event {
	s.mu.Lock()
	seen := append([]menuplan.Aggregate(nil), s.seen...)
	s.mu.Unlock()
	return menuplan.DrainEvents(seen...)
}

func (s *Session) rollback() {
	for _, p := range s.participants {
		p.reset()
	}
}

func (s *Session) register(p participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = append(s.participants, p)
}

func (s *Session) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessionActive {
		return menuplan.ErrUnitOfWorkClosed
	}
	return nil
}

func (s *Session) markSeen(a menuplan.Aggregate) {
	key := a.AggregateType() + "/" + a.AggregateID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seenKeys[key] {
		return
	}
	s.seenKeys[key] = true
	s.seen = append(s.seen, a)
}

// replaceSeen places a right after old, keeping old's first-seen slot.
func (s *Session) replaceSeen(old, a menuplan.Aggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, seen := range s.seen {
		if seen == old {
			s.seen = append(s.seen, nil)
			copy(s.seen[i+2:], s.seen[i+1:])
			s.seen[i+1] = a
			return
		}
	}
	s.seenKeys[a.AggregateType()+"/"+a.AggregateID()] = true
	s.seen = append(s.seen, a)
}
