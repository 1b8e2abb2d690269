package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectohq/connecto/internal/blob"
	"github.com/connectohq/connecto/internal/channel/mailrelay"
	"github.com/connectohq/connecto/internal/ingest"
)

// MailWebhookHandler receives notification envelopes from the cloud
// mail-receiving pipeline. The provider retries on non-2xx, so recognized
// envelopes are always acknowledged with success: application-level
// rejections are logged, never surfaced, to keep retry storms away.
type MailWebhookHandler struct {
	parser    *mailrelay.Parser
	confirmer *mailrelay.Confirmer
	fetcher   blob.Fetcher
	pipeline  *ingest.Pipeline
	logger    *slog.Logger
}

func NewMailWebhookHandler(log *slog.Logger, parser *mailrelay.Parser, confirmer *mailrelay.Confirmer, fetcher blob.Fetcher, pipeline *ingest.Pipeline) *MailWebhookHandler {
	return &MailWebhookHandler{
		parser:    parser,
		confirmer: confirmer,
		fetcher:   fetcher,
		pipeline:  pipeline,
		logger:    log.With(slog.String("handler", "mail_webhook")),
	}
}

func (h *MailWebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/mail", h.Handle)
}

// Handle processes one envelope. Only a body that does not decode as an
// envelope at all is a transport-level failure worth a non-200.
func (h *MailWebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body failed")
	}

	env, err := mailrelay.DecodeEnvelope(body)
	if err != nil {
		h.logger.Warn("malformed envelope", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadRequest, "unrecognized payload")
	}

	switch env.Type {
	case mailrelay.EnvelopeSubscriptionConfirmation:
		h.confirmer.Confirm(c.Request().Context(), env.SubscribeURL)
	case mailrelay.EnvelopeNotification:
		h.handleNotification(c, env)
	default:
		// Other envelope kinds (unsubscribes and the like) carry nothing to
		// ingest but still need the ack or the provider retries them.
		h.logger.Info("ignoring envelope", slog.String("type", env.Type))
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *MailWebhookHandler) handleNotification(c echo.Context, env mailrelay.Envelope) {
	ctx := c.Request().Context()

	notification, err := env.DecodeNotification()
	if err != nil {
		h.logger.Warn("malformed notification", slog.Any("error", err))
		return
	}

	action := notification.Receipt.Action
	raw, err := h.fetcher.Fetch(ctx, action.BucketName, action.ObjectKey)
	if err != nil {
		// No content means nothing to ingest; the provider is still acked.
		h.logger.Error("raw email fetch failed",
			slog.String("bucket", action.BucketName),
			slog.String("key", action.ObjectKey),
			slog.Any("error", err),
		)
		return
	}

	candidate := h.parser.Parse(raw)
	if _, err := h.pipeline.Process(ctx, candidate); err != nil {
		h.logger.Warn("mail event rejected", slog.Any("error", err))
	}
}
