package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityworks/helpdesk/internal/domain"
)

const notificationColumns = `id, recipient_id, ticket_id, kind, message, read, archived, created_at`

type notificationPostgres struct {
	pool *pgxpool.Pool
}

// NewNotificationPostgres instantiates the Postgres-backed notification repository.
func NewNotificationPostgres(pool *pgxpool.Pool) NotificationRepository {
	return &notificationPostgres{pool: pool}
}

func (r *notificationPostgres) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (id, recipient_id, ticket_id, kind, message, read, archived, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		n.ID, n.RecipientID, n.TicketID, n.Kind, n.Message, n.Read, n.Archived, n.CreatedAt,
	)
	return err
}

func (r *notificationPostgres) Update(ctx context.Context, n *domain.Notification) error {
	// Only the recipient-owned flags are mutable.
	const query = `UPDATE notifications SET read=$1, archived=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, n.Read, n.Archived, n.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationPostgres) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	var n domain.Notification
	if err := scanNotification(r.pool.QueryRow(ctx, query, id), &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *notificationPostgres) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id=$1 AND archived=false`
	if unreadOnly {
		query += ` AND read=false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := scanNotification(rows, &n); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func scanNotification(row pgx.Row, n *domain.Notification) error {
	return row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.TicketID,
		&n.Kind,
		&n.Message,
		&n.Read,
		&n.Archived,
		&n.CreatedAt,
	)
}
