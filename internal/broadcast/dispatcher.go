// Package broadcast fans persisted messages out to the live connections
// subscribed to their thread. Delivery is at-most-once per connection;
// durability lives in the store, not here.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/connectohq/connecto/internal/chat"
	"github.com/connectohq/connecto/internal/presence"
)

// Sender pushes one message payload to a single live connection.
type Sender interface {
	SendMessage(ctx context.Context, msg chat.Message) error
}

// Dispatcher resolves a message's room membership and delivers to each
// member best-effort.
type Dispatcher struct {
	presence *presence.Registry
	logger   *slog.Logger

	mu      sync.RWMutex
	senders map[string]Sender
}

// NewDispatcher creates a dispatcher over the given presence registry.
func NewDispatcher(log *slog.Logger, registry *presence.Registry) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		presence: registry,
		logger:   log.With(slog.String("service", "broadcast")),
		senders:  map[string]Sender{},
	}
}

// Register associates a connection id with its sender for the lifetime of
// the connection.
func (d *Dispatcher) Register(connID string, sender Sender) {
	if connID == "" || sender == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders[connID] = sender
}

// Unregister removes the connection's sender. Subsequent publishes treat
// the connection as stale and skip it silently.
func (d *Dispatcher) Unregister(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.senders, connID)
}

// Publish delivers the message to every connection joined to its thread.
// A stale or failing connection drops that single delivery without
// affecting the others, and Publish itself never returns an error to the
// ingestion path.
func (d *Dispatcher) Publish(ctx context.Context, msg chat.Message) {
	members := d.presence.MembersOf(msg.ThreadID)
	if len(members) == 0 {
		return
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, connID := range members {
		d.mu.RLock()
		sender, ok := d.senders[connID]
		d.mu.RUnlock()
		if !ok {
			// Connection went away between lookup and send.
			continue
		}
		connID := connID
		group.Go(func() error {
			if err := sender.SendMessage(ctx, msg); err != nil {
				d.logger.Debug("delivery dropped",
					slog.String("conn_id", connID),
					slog.Int64("thread_id", msg.ThreadID),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}
	_ = group.Wait()
}
