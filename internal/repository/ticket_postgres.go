package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityworks/helpdesk/internal/domain"
)

const ticketColumns = `id, title, description, type, status, priority, requester_id, assignee_id,
       response_due_at, resolution_due_at, created_at, updated_at`

type ticketPostgres struct {
	pool *pgxpool.Pool
}

// NewTicketPostgres instantiates the Postgres-backed ticket repository.
func NewTicketPostgres(pool *pgxpool.Pool) TicketRepository {
	return &ticketPostgres{pool: pool}
}

func (r *ticketPostgres) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, title, description, type, status, priority, requester_id, assignee_id,
                             response_due_at, resolution_due_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.ResponseDueAt,
		ticket.ResolutionDueAt,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketPostgres) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, type=$3, status=$4, priority=$5,
            assignee_id=$6, response_due_at=$7, resolution_due_at=$8, updated_at=$9
        WHERE id=$10`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Type,
		ticket.Status,
		ticket.Priority,
		ticket.AssigneeID,
		ticket.ResponseDueAt,
		ticket.ResolutionDueAt,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketPostgres) AddComment(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertComment = `
        INSERT INTO ticket_comments (id, ticket_id, author_id, body, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	if _, err := tx.Exec(ctx, insertComment,
		comment.ID, comment.TicketID, comment.AuthorID, comment.Body, comment.CreatedAt,
	); err != nil {
		return err
	}

	const touchTicket = `UPDATE tickets SET updated_at=$1 WHERE id=$2`
	cmd, err := tx.Exec(ctx, touchTicket, ticket.UpdatedAt, ticket.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *ticketPostgres) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	ticket, err := scanTicketRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.loadComments(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketPostgres) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	addClause := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if filter.Status != nil {
		addClause("status", *filter.Status)
	}
	if filter.Type != nil {
		addClause("type", *filter.Type)
	}
	if filter.Priority != nil {
		addClause("priority", *filter.Priority)
	}
	if filter.RequesterID != nil {
		addClause("requester_id", *filter.RequesterID)
	}
	if filter.AssigneeID != nil {
		addClause("assignee_id", *filter.AssigneeID)
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	order := "created_at ASC"
	if filter.OrderByUpdatedDesc {
		order = "updated_at DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s`,
		ticketColumns, strings.Join(clauses, " AND "), order)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketPostgres) loadComments(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        SELECT id, ticket_id, author_id, body, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticket.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return err
		}
		ticket.Comments = append(ticket.Comments, c)
	}
	return rows.Err()
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Type,
		&ticket.Status,
		&ticket.Priority,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.ResponseDueAt,
		&ticket.ResolutionDueAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
