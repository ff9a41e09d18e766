package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-chat/internal/domain"
)

// ErrTicketExists signals a unique-constraint violation on tickets.chat_id:
// another attach committed for the same chat first.
var ErrTicketExists = errors.New("chat already has a ticket")

// TicketRepository encapsulates ticket persistence. Tickets carry no owner
// column; owner-scoped reads join through the parent chat.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByIDForOwner(ctx context.Context, ownerID, ticketID string) (*domain.Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	DeleteByChatID(ctx context.Context, chatID string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (chat_id, title, description, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := querier(ctx, r.pool).QueryRow(ctx, query,
		ticket.ChatID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrTicketExists
		}
		return err
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := querier(ctx, r.pool).Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByIDForOwner(ctx context.Context, ownerID, ticketID string) (*domain.Ticket, error) {
	const query = `
        SELECT t.id, t.chat_id, t.title, t.description, t.status, t.created_at, t.updated_at
        FROM tickets t
        JOIN chats c ON c.id = t.chat_id
        WHERE c.owner_user_id=$1 AND t.id=$2`

	var ticket domain.Ticket
	if err := querier(ctx, r.pool).QueryRow(ctx, query, ownerID, ticketID).Scan(
		&ticket.ID,
		&ticket.ChatID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	const query = `
        SELECT t.id, t.chat_id, t.title, t.description, t.status, t.created_at, t.updated_at
        FROM tickets t
        JOIN chats c ON c.id = t.chat_id
        WHERE c.owner_user_id=$1
        ORDER BY t.created_at`

	rows, err := querier(ctx, r.pool).Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ChatID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

// DeleteByChatID removes a chat's ticket inside the chat-delete transaction.
// The schema also cascades, this keeps the invariant explicit.
func (r *ticketRepository) DeleteByChatID(ctx context.Context, chatID string) error {
	const query = `DELETE FROM tickets WHERE chat_id=$1`
	_, err := querier(ctx, r.pool).Exec(ctx, query, chatID)
	return err
}
