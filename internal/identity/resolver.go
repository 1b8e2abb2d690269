// Package identity maps parsed channel hints onto known users and threads.
// Resolution is read-only: unresolved hints surface as chat.ErrNotFound and
// nothing is ever created implicitly.
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/connectohq/connecto/internal/channel"
	"github.com/connectohq/connecto/internal/chat"
)

// Directory is the read side of the chat store the resolver consumes.
type Directory interface {
	FindUserByEmail(ctx context.Context, email string) (chat.User, error)
	FindUserByID(ctx context.Context, id int64) (chat.User, error)
	FindThreadByID(ctx context.Context, id int64) (chat.Thread, error)
}

// Resolver turns candidate hints into store records.
type Resolver struct {
	directory Directory
	logger    *slog.Logger
}

// NewResolver creates a resolver over the given directory.
func NewResolver(log *slog.Logger, directory Directory) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		directory: directory,
		logger:    log.With(slog.String("service", "identity")),
	}
}

// ResolveUser maps the candidate's sender hint to a known user. Email hints
// are matched exactly as provided; id hints are looked up directly. A
// candidate with neither hint is unresolvable.
func (r *Resolver) ResolveUser(ctx context.Context, candidate channel.Candidate) (chat.User, error) {
	switch {
	case candidate.SenderUserID != nil:
		return r.directory.FindUserByID(ctx, *candidate.SenderUserID)
	case candidate.SenderEmail != nil:
		return r.directory.FindUserByEmail(ctx, *candidate.SenderEmail)
	default:
		return chat.User{}, fmt.Errorf("%w: no sender hint", chat.ErrNotFound)
	}
}

// ResolveThread maps the candidate's thread hint to a known thread.
func (r *Resolver) ResolveThread(ctx context.Context, candidate channel.Candidate) (chat.Thread, error) {
	if candidate.ThreadID == nil {
		return chat.Thread{}, fmt.Errorf("%w: no thread hint", chat.ErrNotFound)
	}
	return r.directory.FindThreadByID(ctx, *candidate.ThreadID)
}
