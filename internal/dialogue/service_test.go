package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())

	first, err := svc.LoadOrCreate(context.Background(), "ch1", "c1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.Messages)
	assert.Empty(t, first.ProcessedMessageIDs)

	second, err := svc.LoadOrCreate(context.Background(), "ch1", "c1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := svc.LoadOrCreate(context.Background(), "ch1", "c2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

// raceStore simulates losing the first-insert race: the initial Get misses,
// the Insert collides with a concurrent winner, and subsequent Gets return
// the winner's row.
type raceStore struct {
	winner  Dialogue
	gets    int
	inserts int
}

func (s *raceStore) Get(ctx context.Context, channelID, chatID string) (Dialogue, error) {
	s.gets++
	if s.gets == 1 {
		return Dialogue{}, ErrNotFound
	}
	return s.winner, nil
}

func (s *raceStore) Insert(ctx context.Context, d Dialogue) (Dialogue, error) {
	s.inserts++
	return Dialogue{}, ErrDuplicateKey
}

func (s *raceStore) Update(ctx context.Context, d Dialogue) error {
	return nil
}

func TestLoadOrCreateLosingInsertRaceReturnsWinner(t *testing.T) {
	store := &raceStore{winner: Dialogue{
		ID:                  "d1",
		ChannelID:           "ch1",
		ChatID:              "c1",
		Messages:            []Message{{Role: RoleUser, Text: "hi", MessageID: "m1"}},
		ProcessedMessageIDs: []string{"m1"},
	}}
	svc := NewService(nil, store)

	got, err := svc.LoadOrCreate(context.Background(), "ch1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)
	assert.Equal(t, store.winner.Messages, got.Messages)
	assert.Equal(t, store.winner.ProcessedMessageIDs, got.ProcessedMessageIDs)
	assert.Equal(t, 1, store.inserts)
	assert.Equal(t, 2, store.gets)
}

func TestSaveReplacesWholeDocument(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(nil, store)

	d, err := svc.LoadOrCreate(context.Background(), "ch1", "c1")
	require.NoError(t, err)

	d.Append(
		Message{Role: RoleUser, Text: "hi", MessageID: "m1"},
		Message{Role: RoleAssistant, Text: "hello"},
	)
	d.MarkProcessed("m1")
	require.NoError(t, svc.Save(context.Background(), d))

	loaded, err := store.Get(context.Background(), "ch1", "c1")
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 2)
	assert.Equal(t, []string{"m1"}, loaded.ProcessedMessageIDs)
}

func TestSaveUnknownDialogue(t *testing.T) {
	svc := NewService(nil, NewMemoryStore())
	err := svc.Save(context.Background(), Dialogue{ID: "x", ChannelID: "ch1", ChatID: "c1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessedSetMembership(t *testing.T) {
	d := Dialogue{}
	assert.False(t, d.Processed("m1"))

	d.MarkProcessed("m1")
	assert.True(t, d.Processed("m1"))
	assert.False(t, d.Processed("m2"))

	// MarkProcessed is idempotent.
	d.MarkProcessed("m1")
	assert.Equal(t, []string{"m1"}, d.ProcessedMessageIDs)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	inserted, err := store.Insert(context.Background(), Dialogue{
		ChannelID: "ch1",
		ChatID:    "c1",
		Messages:  []Message{{Role: RoleUser, Text: "hi"}},
	})
	require.NoError(t, err)

	inserted.Messages[0].Text = "mutated"
	loaded, err := store.Get(context.Background(), "ch1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "hi", loaded.Messages[0].Text)
}

func TestInsertDuplicateKey(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Insert(context.Background(), Dialogue{ChannelID: "ch1", ChatID: "c1"})
	require.NoError(t, err)
	_, err = store.Insert(context.Background(), Dialogue{ChannelID: "ch1", ChatID: "c1"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
