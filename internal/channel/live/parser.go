// Package live parses messages typed directly by connected clients. Thread
// and user are taken from the connection's session context rather than the
// payload itself.
package live

import (
	"strings"

	"github.com/connectohq/connecto/internal/channel"
)

// Location is an optional geolocation attached by the client UI. It is
// accepted for wire compatibility and carried no further by the pipeline.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Payload is the typed message object emitted by a connected client.
type Payload struct {
	Content       string    `json:"content"`
	AttachmentURL string    `json:"attachmentUrl,omitempty"`
	Location      *Location `json:"location,omitempty"`
}

// Parse builds a candidate from the client payload plus the session's
// resolved thread and user ids.
func Parse(p Payload, threadID, userID int64) channel.Candidate {
	content := p.Content
	candidate := channel.Candidate{
		Channel:      channel.TypeLive,
		ThreadID:     &threadID,
		SenderUserID: &userID,
		Content:      &content,
	}
	if strings.TrimSpace(p.AttachmentURL) != "" {
		url := p.AttachmentURL
		candidate.AttachmentURL = &url
	}
	return candidate
}
