package mailrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Envelope kinds sent by the notification service.
const (
	EnvelopeSubscriptionConfirmation = "SubscriptionConfirmation"
	EnvelopeNotification             = "Notification"
)

// Envelope is the outer JSON body posted by the mail-receiving pipeline.
// For notifications, Message is itself a JSON document.
type Envelope struct {
	Type         string `json:"Type"`
	SubscribeURL string `json:"SubscribeURL,omitempty"`
	Message      string `json:"Message,omitempty"`
}

// ReceiptAction locates the stored raw email object.
type ReceiptAction struct {
	BucketName string `json:"bucketName"`
	ObjectKey  string `json:"objectKey"`
}

// Receipt is the delivery receipt inside a notification message.
type Receipt struct {
	Action ReceiptAction `json:"action"`
}

// Notification is the decoded inner message of a delivery notification.
type Notification struct {
	Receipt Receipt `json:"receipt"`
}

// DecodeEnvelope parses the outer webhook body. The Type is passed through
// as-is; the provider sends more kinds than the two handled here and every
// decodable envelope must be acknowledged to it.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// DecodeNotification parses the inner message of a Notification envelope.
func (e Envelope) DecodeNotification() (Notification, error) {
	var n Notification
	if err := json.Unmarshal([]byte(e.Message), &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if strings.TrimSpace(n.Receipt.Action.BucketName) == "" || strings.TrimSpace(n.Receipt.Action.ObjectKey) == "" {
		return Notification{}, fmt.Errorf("notification missing receipt action")
	}
	return n, nil
}

// Confirmer resolves subscription-confirmation handshakes with a single
// fire-and-forget GET. Failures are logged, not retried.
type Confirmer struct {
	client  *http.Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewConfirmer creates a confirmer with a bounded per-call timeout.
func NewConfirmer(log *slog.Logger, timeout time.Duration) *Confirmer {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Confirmer{
		client:  &http.Client{Timeout: timeout},
		logger:  log.With(slog.String("service", "mailrelay")),
		timeout: timeout,
	}
}

// Confirm resolves the subscription URL. Any failure is swallowed after
// logging: the provider re-sends confirmation envelopes on its own schedule.
func (c *Confirmer) Confirm(ctx context.Context, subscribeURL string) {
	if strings.TrimSpace(subscribeURL) == "" {
		c.logger.Warn("subscription confirmation without subscribe url")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subscribeURL, nil)
	if err != nil {
		c.logger.Warn("build confirmation request failed", slog.Any("error", err))
		return
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("subscription confirmation failed", slog.Any("error", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		c.logger.Warn("subscription confirmation rejected", slog.Int("status", resp.StatusCode))
		return
	}
	c.logger.Info("subscription confirmed")
}
