package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/connectohq/connecto/internal/broadcast"
	"github.com/connectohq/connecto/internal/channel/live"
	"github.com/connectohq/connecto/internal/chat"
	"github.com/connectohq/connecto/internal/ingest"
	"github.com/connectohq/connecto/internal/presence"
)

const writeTimeout = 10 * time.Second

// Session is one live client connection. Its id is a capability scoped to
// the transport session, distinct from the user identity: one user may hold
// several sessions at once.
type Session struct {
	id       string
	userID   int64
	conn     *websocket.Conn
	presence *presence.Registry
	pipeline *ingest.Pipeline
	logger   *slog.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	threadID int64
}

// NewSession wraps an upgraded connection for a resolved user.
func NewSession(log *slog.Logger, id string, userID int64, conn *websocket.Conn, registry *presence.Registry, pipeline *ingest.Pipeline) *Session {
	return &Session{
		id:       id,
		userID:   userID,
		conn:     conn,
		presence: registry,
		pipeline: pipeline,
		logger:   log.With(slog.String("conn_id", id), slog.Int64("user_id", userID)),
	}
}

// ID returns the connection id.
func (s *Session) ID() string {
	return s.id
}

// Run reads client frames until the connection closes. It always returns
// after the socket is no longer usable; the caller handles deregistration.
func (s *Session) Run(ctx context.Context) {
	for {
		var frame Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("connection read failed", slog.Any("error", err))
			}
			return
		}
		s.handleFrame(ctx, frame)
	}
}

func (s *Session) handleFrame(ctx context.Context, frame Frame) {
	switch frame.Event {
	case EventJoin:
		s.handleJoin(frame)
	case EventLeave:
		s.handleLeave(frame)
	case EventMessage:
		s.handleMessage(ctx, frame)
	default:
		s.sendError("unknown event")
	}
}

func (s *Session) handleJoin(frame Frame) {
	payload, err := DecodeJoin(frame)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	s.presence.Join(s.id, payload.ID)
	s.mu.Lock()
	s.threadID = payload.ID
	s.mu.Unlock()
	s.send(EventJoined, JoinPayload{ID: payload.ID})
	s.logger.Info("joined thread", slog.Int64("thread_id", payload.ID))
}

func (s *Session) handleLeave(frame Frame) {
	payload, err := DecodeJoin(frame)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	s.presence.Leave(s.id, payload.ID)
	s.mu.Lock()
	if s.threadID == payload.ID {
		s.threadID = 0
	}
	s.mu.Unlock()
}

func (s *Session) handleMessage(ctx context.Context, frame Frame) {
	payload, err := DecodeMessage(frame)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	if strings.TrimSpace(payload.Content) == "" && strings.TrimSpace(payload.AttachmentURL) == "" {
		s.sendError("message is empty")
		return
	}

	s.mu.Lock()
	threadID := s.threadID
	s.mu.Unlock()
	if threadID == 0 {
		s.sendError("join a thread first")
		return
	}

	candidate := live.Parse(payload, threadID, s.userID)
	if _, err := s.pipeline.Process(ctx, candidate); err != nil {
		if errors.Is(err, ingest.ErrRejected) {
			s.sendError("message rejected")
			return
		}
		s.sendError("message failed")
	}
	// The broadcast delivers the persisted message back to this session
	// along with every other room member; no direct reply is needed.
}

// SendMessage delivers one persisted message over the socket. It implements
// broadcast.Sender.
func (s *Session) SendMessage(_ context.Context, msg chat.Message) error {
	frame, err := MessageFrame(msg)
	if err != nil {
		return err
	}
	return s.write(frame)
}

func (s *Session) send(event string, payload any) {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		s.logger.Warn("encode frame failed", slog.String("event", event), slog.Any("error", err))
		return
	}
	if err := s.write(frame); err != nil {
		s.logger.Debug("write frame failed", slog.String("event", event), slog.Any("error", err))
	}
}

func (s *Session) sendError(message string) {
	s.send(EventError, ErrorPayload{Message: message})
}

func (s *Session) write(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

var _ broadcast.Sender = (*Session)(nil)
