package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store]. It is safe for concurrent use; returned values
// are copies.
type MemoryStore struct {
	mu         sync.RWMutex
	principals map[string]*Principal
	sessions   map[string]SessionRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		principals: make(map[string]*Principal),
		sessions:   make(map[string]SessionRecord),
	}
}

func (s *MemoryStore) FindPrincipal(ctx context.Context, criteria Criteria) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if criteria.IsZero() {
		return nil, ErrInvalidCriteria
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if criteria.ID != "" {
		p, ok := s.principals[criteria.ID]
		if !ok || !criteria.matches(p) {
			return nil, ErrNotFound
		}
		return p.Clone(), nil
	}
	for _, p := range s.principals {
		if criteria.matches(p) {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) SavePrincipal(ctx context.Context, p *Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.principals {
		if id != p.ID && existing.Email == p.Email {
			return ErrDuplicate
		}
	}
	s.principals[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) SaveSession(ctx context.Context, rec *SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[rec.SessionID] = *rec
	return nil
}

func (s *MemoryStore) RemoveSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, id string, fields Fields) error {
	return s.UpdateFieldsWhere(ctx, id, nil, fields)
}

func (s *MemoryStore) UpdateFieldsWhere(ctx context.Context, id string, where, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fields.Validate(); err != nil {
		return err
	}
	if err := where.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.principals[id]
	if !ok || !where.matches(current) {
		return ErrNotFound
	}

	next := current.Clone()
	for name, value := range fields {
		switch name {
		case FieldEmail:
			for otherID, other := range s.principals {
				if otherID != id && other.Email == value {
					return ErrDuplicate
				}
			}
			next.Email = value
		case FieldPasswordHash:
			next.PasswordHash = value
		case FieldSessionID:
			next.SessionID = value
		case FieldResetToken:
			next.ResetToken = value
		}
	}
	next.UpdatedAt = time.Now().UTC()
	s.principals[id] = next
	return nil
}

// RemoveSessionsCreatedBefore deletes durable sessions older than cutoff.
func (s *MemoryStore) RemoveSessionsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, rec := range s.sessions {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
