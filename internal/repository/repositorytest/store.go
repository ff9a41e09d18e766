// Package repositorytest provides in-memory repository implementations for
// unit tests. They honor the same ownership predicates as the Postgres
// repositories: a row scoped to the wrong owner behaves exactly like a
// missing row.
package repositorytest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/repository"
)

// Store holds all tables behind one mutex.
type Store struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	chats   map[string]*domain.Chat
	tickets map[string]*domain.Ticket
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.User),
		chats:   make(map[string]*domain.Chat),
		tickets: make(map[string]*domain.Ticket),
	}
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{store: s} }

// Chats returns the chat repository view.
func (s *Store) Chats() repository.ChatRepository { return &chatRepo{store: s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{store: s} }

// Tx returns a transaction manager with rollback semantics: the tables are
// snapshotted before the function runs and restored if it returns an error,
// so partial writes never survive a failed transaction.
func (s *Store) Tx() repository.TxManager { return txManager{store: s} }

type txManager struct {
	store *Store
}

func (m txManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	users, chats, tickets := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(users, chats, tickets)
		return err
	}
	return nil
}

func (s *Store) snapshot() (map[string]*domain.User, map[string]*domain.Chat, map[string]*domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make(map[string]*domain.User, len(s.users))
	for id, user := range s.users {
		clone := *user
		users[id] = &clone
	}
	chats := make(map[string]*domain.Chat, len(s.chats))
	for id, chat := range s.chats {
		clone := *chat
		chats[id] = &clone
	}
	tickets := make(map[string]*domain.Ticket, len(s.tickets))
	for id, ticket := range s.tickets {
		clone := *ticket
		tickets[id] = &clone
	}
	return users, chats, tickets
}

func (s *Store) restore(users map[string]*domain.User, chats map[string]*domain.Chat, tickets map[string]*domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.chats = chats
	s.tickets = tickets
}

// rowNotFound mirrors Postgres lookups by primary key: an id that is not
// valid uuid text is rejected with SQLSTATE 22P02 before any row could match,
// anything else that misses is an empty result.
func rowNotFound(id string) error {
	if uuid.Validate(id) != nil {
		return &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid: \"" + id + "\""}
	}
	return pgx.ErrNoRows
}

type userRepo struct {
	store *Store
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == user.Username {
			return repository.ErrUsernameTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.store.users[user.ID] = &clone
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type chatRepo struct {
	store *Store
}

func (r *chatRepo) Create(_ context.Context, chat *domain.Chat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	chat.ID = uuid.NewString()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	clone := *chat
	clone.Ticket = nil
	r.store.chats[chat.ID] = &clone
	return nil
}

func (r *chatRepo) GetByIDForOwner(_ context.Context, ownerID, chatID string) (*domain.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.getLocked(ownerID, chatID)
}

func (r *chatRepo) getLocked(ownerID, chatID string) (*domain.Chat, error) {
	chat, ok := r.store.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return nil, rowNotFound(chatID)
	}
	clone := *chat
	clone.Ticket = r.store.ticketByChatLocked(chatID)
	return &clone, nil
}

func (r *chatRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Chat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []domain.Chat
	for id, chat := range r.store.chats {
		if chat.OwnerID != ownerID {
			continue
		}
		clone := *chat
		clone.Ticket = r.store.ticketByChatLocked(id)
		result = append(result, clone)
	}
	return result, nil
}

func (r *chatRepo) UpdateMessagesForOwner(_ context.Context, ownerID, chatID, messages string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	chat, ok := r.store.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return rowNotFound(chatID)
	}
	chat.Messages = messages
	chat.UpdatedAt = time.Now()
	return nil
}

func (r *chatRepo) DeleteForOwner(_ context.Context, ownerID, chatID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	chat, ok := r.store.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return rowNotFound(chatID)
	}
	delete(r.store.chats, chatID)
	return nil
}

type ticketRepo struct {
	store *Store
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.ticketByChatLocked(ticket.ChatID) != nil {
		return repository.ErrTicketExists
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	// Stored rows must not alias caller memory the way the struct copy above
	// still does for string bytes: ChatID originates from a fiber route param
	// whose backing buffer is reused by the next request. A real database
	// copies the bytes on insert; do the same here.
	clone.ChatID = strings.Clone(ticket.ChatID)
	r.store.tickets[ticket.ID] = &clone
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Title = ticket.Title
	existing.Description = ticket.Description
	existing.Status = ticket.Status
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *ticketRepo) GetByIDForOwner(_ context.Context, ownerID, ticketID string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ticket, ok := r.store.tickets[ticketID]
	if !ok {
		return nil, rowNotFound(ticketID)
	}
	chat, ok := r.store.chats[ticket.ChatID]
	if !ok || chat.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *ticketRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var result []domain.Ticket
	for _, ticket := range r.store.tickets {
		chat, ok := r.store.chats[ticket.ChatID]
		if !ok || chat.OwnerID != ownerID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *ticketRepo) DeleteByChatID(_ context.Context, chatID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, ticket := range r.store.tickets {
		if ticket.ChatID == chatID {
			delete(r.store.tickets, id)
		}
	}
	return nil
}

func (s *Store) ticketByChatLocked(chatID string) *domain.Ticket {
	for _, ticket := range s.tickets {
		if ticket.ChatID == chatID {
			clone := *ticket
			return &clone
		}
	}
	return nil
}

