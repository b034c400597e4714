package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatgatehq/chatgate/internal/db"
)

const dialogueColumns = "id, channel_id, chat_id, message_list, processed_message_ids, created_at, updated_at"

// PostgresStore persists dialogues in the dialogues table. message_list and
// processed_message_ids are JSONB documents replaced wholesale on Update.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, channelID, chatID string) (Dialogue, error) {
	pgChannelID, err := db.ParseUUID(channelID)
	if err != nil {
		return Dialogue{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+dialogueColumns+` FROM dialogues WHERE channel_id = $1 AND chat_id = $2`,
		pgChannelID, chatID,
	)
	d, err := scanDialogue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dialogue{}, ErrNotFound
		}
		return Dialogue{}, fmt.Errorf("get dialogue: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) Insert(ctx context.Context, d Dialogue) (Dialogue, error) {
	pgChannelID, err := db.ParseUUID(d.ChannelID)
	if err != nil {
		return Dialogue{}, fmt.Errorf("insert dialogue: %w", err)
	}
	messages, processed, err := marshalState(d)
	if err != nil {
		return Dialogue{}, err
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO dialogues (channel_id, chat_id, message_list, processed_message_ids)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+dialogueColumns,
		pgChannelID, d.ChatID, messages, processed,
	)
	inserted, err := scanDialogue(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Dialogue{}, ErrDuplicateKey
		}
		return Dialogue{}, fmt.Errorf("insert dialogue: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) Update(ctx context.Context, d Dialogue) error {
	pgID, err := db.ParseUUID(d.ID)
	if err != nil {
		return ErrNotFound
	}
	messages, processed, err := marshalState(d)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE dialogues
		 SET message_list = $2, processed_message_ids = $3, updated_at = now()
		 WHERE id = $1`,
		pgID, messages, processed,
	)
	if err != nil {
		return fmt.Errorf("update dialogue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalState(d Dialogue) ([]byte, []byte, error) {
	msgs := d.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	ids := d.ProcessedMessageIDs
	if ids == nil {
		ids = []string{}
	}
	messages, err := json.Marshal(msgs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal message list: %w", err)
	}
	processed, err := json.Marshal(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal processed ids: %w", err)
	}
	return messages, processed, nil
}

func scanDialogue(row pgx.Row) (Dialogue, error) {
	var (
		id        pgtype.UUID
		channelID pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		messages  []byte
		processed []byte
		d         Dialogue
	)
	if err := row.Scan(&id, &channelID, &d.ChatID, &messages, &processed, &createdAt, &updatedAt); err != nil {
		return Dialogue{}, err
	}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &d.Messages); err != nil {
			return Dialogue{}, fmt.Errorf("decode message list: %w", err)
		}
	}
	if len(processed) > 0 {
		if err := json.Unmarshal(processed, &d.ProcessedMessageIDs); err != nil {
			return Dialogue{}, fmt.Errorf("decode processed ids: %w", err)
		}
	}
	d.ID = db.UUIDString(id)
	d.ChannelID = db.UUIDString(channelID)
	d.CreatedAt = db.TimeFromPg(createdAt)
	d.UpdatedAt = db.TimeFromPg(updatedAt)
	return d, nil
}
