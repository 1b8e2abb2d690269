package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/connectohq/connecto/internal/auth"
	"github.com/connectohq/connecto/internal/broadcast"
	"github.com/connectohq/connecto/internal/ingest"
	"github.com/connectohq/connecto/internal/presence"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Session tokens gate the upgrade; origin policy belongs to the
		// fronting proxy.
		return true
	},
}

// Handler upgrades authenticated clients onto live sessions.
type Handler struct {
	registry   *presence.Registry
	dispatcher *broadcast.Dispatcher
	pipeline   *ingest.Pipeline
	logger     *slog.Logger
}

func NewHandler(log *slog.Logger, registry *presence.Registry, dispatcher *broadcast.Dispatcher, pipeline *ingest.Pipeline) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		pipeline:   pipeline,
		logger:     log.With(slog.String("handler", "ws")),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/ws", h.Connect)
}

// Connect runs one connection lifecycle: upgrade, register with presence
// and dispatch, pump frames, and on any exit purge every membership the
// connection held.
func (h *Handler) Connect(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "upgrade failed")
	}

	connID := uuid.NewString()
	session := NewSession(h.logger, connID, userID, conn, h.registry, h.pipeline)

	h.dispatcher.Register(connID, session)
	h.logger.Info("client connected", slog.String("conn_id", connID), slog.Int64("user_id", userID))

	defer func() {
		h.dispatcher.Unregister(connID)
		h.registry.Drop(connID)
		_ = conn.Close()
		h.logger.Info("client disconnected", slog.String("conn_id", connID))
	}()

	session.Run(c.Request().Context())
	return nil
}
