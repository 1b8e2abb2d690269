// Package ingest runs the channel-agnostic half of the inbound pipeline:
// resolve → persist → broadcast. Channel parsers feed it candidates; both
// the webhook gateways and the live-connection gateway share this path.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/connectohq/connecto/internal/channel"
	"github.com/connectohq/connecto/internal/chat"
)

// Stage labels how far an inbound event travelled before terminating.
type Stage string

const (
	StageReceived     Stage = "received"
	StageParsed       Stage = "parsed"
	StageResolved     Stage = "resolved"
	StagePersisted    Stage = "persisted"
	StageBroadcast    Stage = "broadcast"
	StageAcknowledged Stage = "acknowledged"
)

// ErrRejected marks an event that terminated before persistence. The
// wrapped cause distinguishes unresolved identities from store constraint
// failures.
var ErrRejected = errors.New("ingest: event rejected")

// Resolver maps candidate hints to known records.
type Resolver interface {
	ResolveUser(ctx context.Context, candidate channel.Candidate) (chat.User, error)
	ResolveThread(ctx context.Context, candidate channel.Candidate) (chat.Thread, error)
}

// Store persists canonical messages.
type Store interface {
	CreateMessage(ctx context.Context, threadID, userID int64, content string, attachmentURL *string) (chat.Message, error)
}

// Publisher fans a persisted message out to subscribed connections.
type Publisher interface {
	Publish(ctx context.Context, msg chat.Message)
}

// Pipeline sequences resolution, persistence, and broadcast for one
// inbound event. Failures reject only that event; concurrent invocations
// are independent.
type Pipeline struct {
	resolver  Resolver
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

// NewPipeline creates the shared ingestion pipeline.
func NewPipeline(log *slog.Logger, resolver Resolver, store Store, publisher Publisher) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		resolver:  resolver,
		store:     store,
		publisher: publisher,
		logger:    log.With(slog.String("service", "ingest")),
	}
}

// Process takes a parsed candidate through resolve → persist → broadcast.
// An unresolved identity or a store constraint failure returns ErrRejected
// with the cause wrapped; the store is never called with an unresolved
// identity. Once the message is committed, broadcast problems cannot fail
// the event: persistence is the point of no return.
func (p *Pipeline) Process(ctx context.Context, candidate channel.Candidate) (chat.Message, error) {
	thread, err := p.resolver.ResolveThread(ctx, candidate)
	if err != nil {
		return chat.Message{}, p.reject(candidate, StageParsed, fmt.Errorf("resolve thread: %w", err))
	}
	user, err := p.resolver.ResolveUser(ctx, candidate)
	if err != nil {
		return chat.Message{}, p.reject(candidate, StageParsed, fmt.Errorf("resolve user: %w", err))
	}

	// Empty-content candidates are persisted with empty content rather than
	// rejected: an attachment-only email still belongs in the thread.
	msg, err := p.store.CreateMessage(ctx, thread.ID, user.ID, candidate.Text(), candidate.AttachmentURL)
	if err != nil {
		return chat.Message{}, p.reject(candidate, StageResolved, fmt.Errorf("persist: %w", err))
	}

	p.publisher.Publish(ctx, msg)

	p.logger.Info("message ingested",
		slog.String("channel", candidate.Channel.String()),
		slog.Int64("thread_id", msg.ThreadID),
		slog.Int64("user_id", msg.UserID),
		slog.Int64("message_id", msg.ID),
	)
	return msg, nil
}

func (p *Pipeline) reject(candidate channel.Candidate, stage Stage, cause error) error {
	p.logger.Warn("event rejected",
		slog.String("channel", candidate.Channel.String()),
		slog.String("stage", string(stage)),
		slog.Any("error", cause),
	)
	return fmt.Errorf("%w: %w", ErrRejected, cause)
}
