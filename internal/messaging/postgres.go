// internal/messaging/postgres.go
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

const messageColumns = `id, sender_id, recipient_id, message, book_id, is_read, read_at, created_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO private_messages (` + messageColumns + `)
		VALUES (:id, :sender_id, :recipient_id, :message, :book_id, :is_read, :read_at, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	query, args, err := dialect.From("private_messages").
		Select(goqu.L(messageColumns)).
		Where(goqu.Or(
			goqu.And(goqu.C("sender_id").Eq(a.String()), goqu.C("recipient_id").Eq(b.String())),
			goqu.And(goqu.C("sender_id").Eq(b.String()), goqu.C("recipient_id").Eq(a.String())),
		)).
		Order(goqu.C("created_at").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	out := []*Message{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, recipientID, senderID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
		UPDATE private_messages
		SET is_read = TRUE, read_at = $3
		WHERE recipient_id = $1 AND sender_id = $2 AND NOT is_read
		RETURNING id
	`, recipientID, senderID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) Latest(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	out := []*Message{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+messageColumns+` FROM (
			SELECT DISTINCT ON (partner) `+messageColumns+`
			FROM (
				SELECT *, CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS partner
				FROM private_messages
				WHERE sender_id = $1 OR recipient_id = $1
			) threads
			ORDER BY partner, created_at DESC
		) latest
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UnreadBySender(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		SenderID uuid.UUID `db:"sender_id"`
		Count    int       `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT sender_id, COUNT(*) AS count
		FROM private_messages
		WHERE recipient_id = $1 AND NOT is_read
		GROUP BY sender_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	return counts, nil
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM private_messages WHERE recipient_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
