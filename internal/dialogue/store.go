package dialogue

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// ErrDuplicateKey is returned by Store.Insert when a dialogue already exists
// for the (channel, chat) pair. Callers re-read the winner's row.
var ErrDuplicateKey = errors.New("dialogue already exists for key")

// Store is the persistence boundary for dialogues. Save is a whole-document
// replace; the last writer wins.
type Store interface {
	Get(ctx context.Context, channelID, chatID string) (Dialogue, error)
	Insert(ctx context.Context, d Dialogue) (Dialogue, error)
	Update(ctx context.Context, d Dialogue) error
}

type memoryKey struct {
	channelID string
	chatID    string
}

// MemoryStore is an in-memory Store used in tests and single-process setups.
type MemoryStore struct {
	mu       sync.RWMutex
	byKey    map[memoryKey]Dialogue
	sequence int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: map[memoryKey]Dialogue{}}
}

func (s *MemoryStore) Get(ctx context.Context, channelID, chatID string) (Dialogue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byKey[memoryKey{channelID, chatID}]
	if !ok {
		return Dialogue{}, ErrNotFound
	}
	return cloneDialogue(d), nil
}

func (s *MemoryStore) Insert(ctx context.Context, d Dialogue) (Dialogue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{d.ChannelID, d.ChatID}
	if _, exists := s.byKey[key]; exists {
		return Dialogue{}, ErrDuplicateKey
	}
	s.sequence++
	d.ID = "dialogue-" + strconv.Itoa(s.sequence)
	s.byKey[key] = cloneDialogue(d)
	return d, nil
}

func (s *MemoryStore) Update(ctx context.Context, d Dialogue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey{d.ChannelID, d.ChatID}
	if _, exists := s.byKey[key]; !exists {
		return ErrNotFound
	}
	s.byKey[key] = cloneDialogue(d)
	return nil
}

func cloneDialogue(d Dialogue) Dialogue {
	clone := d
	clone.Messages = append([]Message(nil), d.Messages...)
	clone.ProcessedMessageIDs = append([]string(nil), d.ProcessedMessageIDs...)
	return clone
}
