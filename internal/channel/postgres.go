package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatgatehq/chatgate/internal/db"
)

const channelColumns = "id, name, channel_url, channel_token, secret_token, created_at, updated_at"

// PostgresStore persists channels in the channels table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, ch Channel) (Channel, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO channels (name, channel_url, channel_token, secret_token)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+channelColumns,
		ch.Name, ch.CallbackURL, ch.CallbackToken, ch.SecretToken,
	)
	inserted, err := scanChannel(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Channel{}, ErrSecretTaken
		}
		return Channel{}, fmt.Errorf("insert channel: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Channel, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Channel{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = $1`, pgID)
	ch, err := scanChannel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrNotFound
		}
		return Channel{}, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) GetBySecret(ctx context.Context, secret string) (Channel, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE secret_token = $1`, secret)
	ch, err := scanChannel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrNotFound
		}
		return Channel{}, fmt.Errorf("resolve channel: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+channelColumns+` FROM channels ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	items := make([]Channel, 0)
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		items = append(items, ch)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, ch Channel) (Channel, error) {
	pgID, err := db.ParseUUID(ch.ID)
	if err != nil {
		return Channel{}, ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE channels
		 SET name = $2, channel_url = $3, channel_token = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+channelColumns,
		pgID, ch.Name, ch.CallbackURL, ch.CallbackToken,
	)
	updated, err := scanChannel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrNotFound
		}
		return Channel{}, fmt.Errorf("update channel: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, pgID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanChannel(row pgx.Row) (Channel, error) {
	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		ch        Channel
	)
	if err := row.Scan(&id, &ch.Name, &ch.CallbackURL, &ch.CallbackToken, &ch.SecretToken, &createdAt, &updatedAt); err != nil {
		return Channel{}, err
	}
	ch.ID = db.UUIDString(id)
	ch.CreatedAt = db.TimeFromPg(createdAt)
	ch.UpdatedAt = db.TimeFromPg(updatedAt)
	return ch, nil
}
