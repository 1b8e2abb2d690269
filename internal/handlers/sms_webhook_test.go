package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/connectohq/connecto/internal/ingest"
)

func postSMS(t *testing.T, h *SMSWebhookHandler, query string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms?"+query, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	return rec
}

func TestSMSWebhook_Ingests(t *testing.T) {
	store := &fakeStore{}
	pipeline := ingest.NewPipeline(slog.Default(), fakeResolver{}, store, fakePublisher{})
	h := NewSMSWebhookHandler(slog.Default(), pipeline)

	rec := postSMS(t, h, "threadId=42&userId=1", url.Values{"text": {"running late"}})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d messages, want 1", len(store.created))
	}
	got := store.created[0]
	if got.ThreadID != 42 || got.UserID != 1 || got.Content != "running late" {
		t.Fatalf("created message = %+v", got)
	}
	assertSuccessBody(t, rec)
}

func TestSMSWebhook_RejectionStillAcked(t *testing.T) {
	store := &fakeStore{}
	pipeline := ingest.NewPipeline(slog.Default(), fakeResolver{}, store, fakePublisher{})
	h := NewSMSWebhookHandler(slog.Default(), pipeline)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown thread", "threadId=999&userId=1"},
		{"unknown user", "threadId=42&userId=999"},
		{"missing ids", ""},
		{"non-numeric ids", "threadId=abc&userId=def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postSMS(t, h, tt.query, url.Values{"text": {"hi"}})
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, want 201 despite rejection", rec.Code)
			}
			assertSuccessBody(t, rec)
		})
	}
	if len(store.created) != 0 {
		t.Fatalf("created %d messages, want 0", len(store.created))
	}
}

func TestSMSWebhook_EmptyTextPersists(t *testing.T) {
	store := &fakeStore{}
	pipeline := ingest.NewPipeline(slog.Default(), fakeResolver{}, store, fakePublisher{})
	h := NewSMSWebhookHandler(slog.Default(), pipeline)

	rec := postSMS(t, h, "threadId=42&userId=1", url.Values{})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(store.created) != 1 || store.created[0].Content != "" {
		t.Fatalf("created = %+v, want one empty-content message", store.created)
	}
}
