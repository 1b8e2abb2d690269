// Package smsgateway parses inbound SMS delivered by a third-party gateway
// webhook. The gateway is configured to echo thread and user ids back in the
// query string, so no address-embedding scheme applies to this channel.
package smsgateway

import (
	"strconv"
	"strings"

	"github.com/connectohq/connecto/internal/channel"
)

// Payload carries the raw webhook fields before parsing.
type Payload struct {
	ThreadID string
	UserID   string
	Text     string
}

// Parse takes the gateway fields literally: ids are parsed as integers,
// the body text is passed through unchanged. Unparseable ids yield nil
// hints for the resolver to reject.
func Parse(p Payload) channel.Candidate {
	candidate := channel.Candidate{
		Channel: channel.TypeSMSGateway,
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(p.ThreadID), 10, 64); err == nil {
		candidate.ThreadID = &id
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(p.UserID), 10, 64); err == nil {
		candidate.SenderUserID = &id
	}
	text := p.Text
	candidate.Content = &text
	return candidate
}
