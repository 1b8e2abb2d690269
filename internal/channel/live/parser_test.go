package live_test

import (
	"testing"

	"github.com/connectohq/connecto/internal/channel"
	"github.com/connectohq/connecto/internal/channel/live"
)

func TestParse(t *testing.T) {
	t.Parallel()

	got := live.Parse(live.Payload{Content: "hi", AttachmentURL: "https://files.example.com/a.png"}, 42, 7)
	if got.Channel != channel.TypeLive {
		t.Fatalf("Channel = %q, want %q", got.Channel, channel.TypeLive)
	}
	if got.ThreadID == nil || *got.ThreadID != 42 {
		t.Fatalf("ThreadID = %v, want 42", got.ThreadID)
	}
	if got.SenderUserID == nil || *got.SenderUserID != 7 {
		t.Fatalf("SenderUserID = %v, want 7", got.SenderUserID)
	}
	if got.Content == nil || *got.Content != "hi" {
		t.Fatalf("Content = %v", got.Content)
	}
	if got.AttachmentURL == nil || *got.AttachmentURL != "https://files.example.com/a.png" {
		t.Fatalf("AttachmentURL = %v", got.AttachmentURL)
	}
}

func TestParse_BlankAttachmentDropped(t *testing.T) {
	t.Parallel()

	got := live.Parse(live.Payload{Content: "hi", AttachmentURL: "   "}, 42, 7)
	if got.AttachmentURL != nil {
		t.Fatalf("AttachmentURL = %q, want nil", *got.AttachmentURL)
	}
}

func TestParse_LocationIgnored(t *testing.T) {
	t.Parallel()

	got := live.Parse(live.Payload{Content: "hi", Location: &live.Location{Latitude: 1, Longitude: 2}}, 42, 7)
	if got.Content == nil || *got.Content != "hi" {
		t.Fatalf("Content = %v", got.Content)
	}
}
