// Package chat holds the canonical conversation records: users, threads,
// and the messages attached to them. The store in this package is the
// single source of truth for whether a message has happened.
package chat

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a user or thread lookup matches no row.
var ErrNotFound = errors.New("chat: not found")

// ErrConstraintViolation is returned when a message references a thread or
// user that does not exist.
var ErrConstraintViolation = errors.New("chat: constraint violation")

// User is a known account. Accounts are created and managed elsewhere;
// this package only reads them.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Thread is a conversation container owning an ordered message sequence.
type Thread struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
}

// Message is the canonical record produced by every inbound channel.
// It is immutable once created.
type Message struct {
	ID            int64     `json:"id"`
	ThreadID      int64     `json:"threadId"`
	UserID        int64     `json:"userId"`
	User          User      `json:"user"`
	Content       string    `json:"content"`
	AttachmentURL *string   `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
