package mailrelay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/connectohq/connecto/internal/channel/mailrelay"
)

func TestDecodeEnvelope(t *testing.T) {
	t.Parallel()

	env, err := mailrelay.DecodeEnvelope([]byte(`{"Type":"SubscriptionConfirmation","SubscribeURL":"https://example.com/confirm"}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope(confirmation) error: %v", err)
	}
	if env.Type != mailrelay.EnvelopeSubscriptionConfirmation || env.SubscribeURL != "https://example.com/confirm" {
		t.Fatalf("DecodeEnvelope(confirmation) = %+v", env)
	}

	env, err = mailrelay.DecodeEnvelope([]byte(`{"Type":"Notification","Message":"{}"}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope(notification) error: %v", err)
	}
	if env.Type != mailrelay.EnvelopeNotification {
		t.Fatalf("DecodeEnvelope(notification).Type = %q", env.Type)
	}
}

func TestDecodeEnvelope_Rejects(t *testing.T) {
	t.Parallel()

	if _, err := mailrelay.DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatal("DecodeEnvelope(malformed) expected error")
	}
}

func TestDecodeEnvelope_UnhandledTypePassesThrough(t *testing.T) {
	t.Parallel()

	env, err := mailrelay.DecodeEnvelope([]byte(`{"Type":"UnsubscribeConfirmation"}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope(unsubscribe) error: %v", err)
	}
	if env.Type != "UnsubscribeConfirmation" {
		t.Fatalf("DecodeEnvelope(unsubscribe).Type = %q", env.Type)
	}
}

func TestDecodeNotification(t *testing.T) {
	t.Parallel()

	env := mailrelay.Envelope{
		Type:    mailrelay.EnvelopeNotification,
		Message: `{"receipt":{"action":{"bucketName":"inbound-mail","objectKey":"raw/abc123"}}}`,
	}
	n, err := env.DecodeNotification()
	if err != nil {
		t.Fatalf("DecodeNotification error: %v", err)
	}
	if n.Receipt.Action.BucketName != "inbound-mail" || n.Receipt.Action.ObjectKey != "raw/abc123" {
		t.Fatalf("DecodeNotification = %+v", n)
	}
}

func TestDecodeNotification_MissingAction(t *testing.T) {
	t.Parallel()

	env := mailrelay.Envelope{Type: mailrelay.EnvelopeNotification, Message: `{"receipt":{"action":{}}}`}
	if _, err := env.DecodeNotification(); err == nil {
		t.Fatal("DecodeNotification without bucket/key expected error")
	}

	env = mailrelay.Envelope{Type: mailrelay.EnvelopeNotification, Message: `broken`}
	if _, err := env.DecodeNotification(); err == nil {
		t.Fatal("DecodeNotification with malformed message expected error")
	}
}

func TestConfirmer_Confirm(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := mailrelay.NewConfirmer(nil, time.Second)
	c.Confirm(context.Background(), srv.URL)

	if hits.Load() != 1 {
		t.Fatalf("confirm endpoint hit %d times, want 1", hits.Load())
	}
}

func TestConfirmer_SwallowsFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := mailrelay.NewConfirmer(nil, time.Second)
	// None of these may panic or block; failures are logged only.
	c.Confirm(context.Background(), srv.URL)
	c.Confirm(context.Background(), "")
	c.Confirm(context.Background(), "http://127.0.0.1:1/unreachable")
}
