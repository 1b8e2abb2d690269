package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectohq/connecto/internal/channel/smsgateway"
	"github.com/connectohq/connecto/internal/ingest"
)

// SMSWebhookHandler receives inbound SMS from the gateway. Thread and user
// ids ride in the query string as configured on the gateway side; the text
// body arrives as a form field.
type SMSWebhookHandler struct {
	pipeline *ingest.Pipeline
	logger   *slog.Logger
}

func NewSMSWebhookHandler(log *slog.Logger, pipeline *ingest.Pipeline) *SMSWebhookHandler {
	return &SMSWebhookHandler{
		pipeline: pipeline,
		logger:   log.With(slog.String("handler", "sms_webhook")),
	}
}

func (h *SMSWebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/sms", h.Handle)
}

// Handle ingests one SMS. Like the mail webhook, the gateway always gets a
// success acknowledgement for a recognized request; rejection detail stays
// in the logs.
func (h *SMSWebhookHandler) Handle(c echo.Context) error {
	candidate := smsgateway.Parse(smsgateway.Payload{
		ThreadID: c.QueryParam("threadId"),
		UserID:   c.QueryParam("userId"),
		Text:     c.FormValue("text"),
	})

	if _, err := h.pipeline.Process(c.Request().Context(), candidate); err != nil {
		h.logger.Warn("sms event rejected", slog.Any("error", err))
	}

	return c.JSON(http.StatusCreated, map[string]bool{"success": true})
}
