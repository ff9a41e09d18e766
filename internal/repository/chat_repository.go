package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-chat/internal/domain"
)

// ChatRepository encapsulates chat persistence. Every read and write is
// predicated on the owner id; an unowned chat is indistinguishable from a
// missing one.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByIDForOwner(ctx context.Context, ownerID, chatID string) (*domain.Chat, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Chat, error)
	UpdateMessagesForOwner(ctx context.Context, ownerID, chatID, messages string) error
	DeleteForOwner(ctx context.Context, ownerID, chatID string) error
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository instantiates repository.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

// chatColumns selects the chat with its optional ticket via LEFT JOIN.
const chatColumns = `
        SELECT c.id, c.owner_user_id, c.messages, c.created_at, c.updated_at,
               t.id, t.chat_id, t.title, t.description, t.status, t.created_at, t.updated_at
        FROM chats c
        LEFT JOIN tickets t ON t.chat_id = c.id`

func (r *chatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	const query = `
        INSERT INTO chats (owner_user_id, messages)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	return querier(ctx, r.pool).QueryRow(ctx, query,
		chat.OwnerID,
		chat.Messages,
	).Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt)
}

func (r *chatRepository) GetByIDForOwner(ctx context.Context, ownerID, chatID string) (*domain.Chat, error) {
	const query = chatColumns + `
        WHERE c.owner_user_id=$1 AND c.id=$2`

	row := querier(ctx, r.pool).QueryRow(ctx, query, ownerID, chatID)
	chat, err := scanChatWithTicket(row)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *chatRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Chat, error) {
	const query = chatColumns + `
        WHERE c.owner_user_id=$1
        ORDER BY c.created_at`

	rows, err := querier(ctx, r.pool).Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Chat
	for rows.Next() {
		chat, err := scanChatWithTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *chat)
	}
	return result, rows.Err()
}

func (r *chatRepository) UpdateMessagesForOwner(ctx context.Context, ownerID, chatID, messages string) error {
	const query = `
        UPDATE chats SET messages=$1, updated_at=NOW()
        WHERE owner_user_id=$2 AND id=$3`

	cmd, err := querier(ctx, r.pool).Exec(ctx, query, messages, ownerID, chatID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *chatRepository) DeleteForOwner(ctx context.Context, ownerID, chatID string) error {
	const query = `
        DELETE FROM chats
        WHERE owner_user_id=$1 AND id=$2`

	cmd, err := querier(ctx, r.pool).Exec(ctx, query, ownerID, chatID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanChatWithTicket(row pgx.Row) (*domain.Chat, error) {
	var chat domain.Chat
	var (
		ticketID          *string
		ticketChatID      *string
		ticketTitle       *string
		ticketDescription *string
		ticketStatus      *string
		ticketCreatedAt   *time.Time
		ticketUpdatedAt   *time.Time
	)

	if err := row.Scan(
		&chat.ID,
		&chat.OwnerID,
		&chat.Messages,
		&chat.CreatedAt,
		&chat.UpdatedAt,
		&ticketID,
		&ticketChatID,
		&ticketTitle,
		&ticketDescription,
		&ticketStatus,
		&ticketCreatedAt,
		&ticketUpdatedAt,
	); err != nil {
		return nil, err
	}

	if ticketID != nil {
		chat.Ticket = &domain.Ticket{
			ID:          *ticketID,
			ChatID:      *ticketChatID,
			Title:       *ticketTitle,
			Description: *ticketDescription,
			Status:      domain.TicketStatus(*ticketStatus),
			CreatedAt:   *ticketCreatedAt,
			UpdatedAt:   *ticketUpdatedAt,
		}
	}
	return &chat, nil
}
