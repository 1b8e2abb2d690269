package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dbpkg "github.com/connectohq/connecto/internal/db"
)

// Store persists and reads conversation records over Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a chat store.
func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		pool:   pool,
		logger: log.With(slog.String("service", "chat")),
	}
}

// CreateMessage inserts one message attributed to a thread and a user.
// The insert is atomic: the row either exists fully associated or not at
// all. A dangling thread or user reference fails with ErrConstraintViolation.
func (s *Store) CreateMessage(ctx context.Context, threadID, userID int64, content string, attachmentURL *string) (Message, error) {
	msg := Message{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (thread_id, user_id, content, attachment_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, thread_id, user_id, content, attachment_url, created_at
	`, threadID, userID, content, attachmentURL).Scan(
		&msg.ID,
		&msg.ThreadID,
		&msg.UserID,
		&msg.Content,
		&msg.AttachmentURL,
		&msg.CreatedAt,
	)
	if err != nil {
		if dbpkg.IsConstraintViolation(err) {
			return Message{}, fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return Message{}, fmt.Errorf("create message: %w", err)
	}

	user, err := s.FindUserByID(ctx, msg.UserID)
	if err != nil {
		// The row is committed; a failed sender hydration only degrades the
		// broadcast payload.
		s.logger.Warn("hydrate message sender failed", slog.Int64("user_id", msg.UserID), slog.Any("error", err))
	} else {
		msg.User = user
	}
	return msg, nil
}

// ListByThread returns the thread's messages in creation order with the
// sender joined in.
func (s *Store) ListByThread(ctx context.Context, threadID int64) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.thread_id, m.user_id, m.content, m.attachment_url, m.created_at,
		       u.id, u.email, u.name
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.thread_id = $1
		ORDER BY m.id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ThreadID,
			&msg.UserID,
			&msg.Content,
			&msg.AttachmentURL,
			&msg.CreatedAt,
			&msg.User.ID,
			&msg.User.Email,
			&msg.User.Name,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// FindUserByEmail retrieves a user by exact email match.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user := User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id.
func (s *Store) FindUserByID(ctx context.Context, id int64) (User, error) {
	user := User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// FindThreadByID retrieves a thread by id.
func (s *Store) FindThreadByID(ctx context.Context, id int64) (Thread, error) {
	thread := Thread{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, title FROM threads WHERE id = $1
	`, id).Scan(&thread.ID, &thread.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Thread{}, ErrNotFound
		}
		return Thread{}, fmt.Errorf("find thread by id: %w", err)
	}
	return thread, nil
}
