package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/connectohq/connecto/internal/chat"
)

// ThreadReader is the slice of the message store the history endpoint needs.
type ThreadReader interface {
	FindThreadByID(ctx context.Context, id int64) (chat.Thread, error)
	ListByThread(ctx context.Context, threadID int64) ([]chat.Message, error)
}

// ThreadHandler serves thread history so clients can hydrate a conversation
// before live messages start flowing.
type ThreadHandler struct {
	store  ThreadReader
	logger *slog.Logger
}

func NewThreadHandler(log *slog.Logger, store ThreadReader) *ThreadHandler {
	return &ThreadHandler{
		store:  store,
		logger: log.With(slog.String("handler", "thread")),
	}
}

func (h *ThreadHandler) Register(e *echo.Echo) {
	e.GET("/api/threads/:id", h.Get)
}

type threadResponse struct {
	ID       int64          `json:"id"`
	Title    string         `json:"title,omitempty"`
	Messages []chat.Message `json:"messages"`
}

func (h *ThreadHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid thread id")
	}

	ctx := c.Request().Context()
	thread, err := h.store.FindThreadByID(ctx, id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	messages, err := h.store.ListByThread(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]threadResponse{
		"thread": {
			ID:       thread.ID,
			Title:    thread.Title,
			Messages: messages,
		},
	})
}
