package channel

import (
	"context"
	"strconv"
	"sync"
)

// Store is the persistence boundary for channels. Implementations return
// ErrNotFound when no row matches; Insert returns ErrSecretTaken when the
// generated secret token collides with an existing one.
type Store interface {
	Insert(ctx context.Context, ch Channel) (Channel, error)
	GetByID(ctx context.Context, id string) (Channel, error)
	GetBySecret(ctx context.Context, secret string) (Channel, error)
	List(ctx context.Context) ([]Channel, error)
	Update(ctx context.Context, ch Channel) (Channel, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store used in tests and single-process setups.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]Channel
	idFn     func() string
	sequence int
}

// NewMemoryStore creates an empty MemoryStore. idFn assigns ids on insert;
// when nil, sequential ids are used.
func NewMemoryStore(idFn func() string) *MemoryStore {
	return &MemoryStore{
		byID: map[string]Channel{},
		idFn: idFn,
	}
}

func (s *MemoryStore) nextID() string {
	if s.idFn != nil {
		return s.idFn()
	}
	s.sequence++
	return "channel-" + strconv.Itoa(s.sequence)
}

func (s *MemoryStore) Insert(ctx context.Context, ch Channel) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.SecretToken == ch.SecretToken {
			return Channel{}, ErrSecretTaken
		}
	}
	ch.ID = s.nextID()
	s.byID[ch.ID] = ch
	return ch, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.byID[id]
	if !ok {
		return Channel{}, ErrNotFound
	}
	return ch, nil
}

func (s *MemoryStore) GetBySecret(ctx context.Context, secret string) (Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.byID {
		if ch.SecretToken == secret {
			return ch, nil
		}
	}
	return Channel{}, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context) ([]Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Channel, 0, len(s.byID))
	for _, ch := range s.byID {
		items = append(items, ch)
	}
	return items, nil
}

func (s *MemoryStore) Update(ctx context.Context, ch Channel) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[ch.ID]; !ok {
		return Channel{}, ErrNotFound
	}
	s.byID[ch.ID] = ch
	return ch, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
