// Package channel defines the shared shape every inbound transport parses
// its payloads into. Parsers are pure: they extract hints, never resolve
// them, and never touch storage.
package channel

// Type identifies an inbound transport.
type Type string

const (
	TypeMailRelay  Type = "mailrelay"
	TypeSMSGateway Type = "smsgateway"
	TypeLive       Type = "live"
)

// String returns the channel type as a plain string.
func (t Type) String() string {
	return string(t)
}

// Candidate is the parsed-but-unresolved form of an inbound message.
// Every field is a hint: nil means the channel payload carried nothing
// extractable for that field. Rejecting incomplete candidates is the
// resolver's job, not the parser's.
type Candidate struct {
	Channel       Type
	ThreadID      *int64
	SenderEmail   *string
	SenderUserID  *int64
	Content       *string
	AttachmentURL *string
}

// Text returns the candidate content, or empty string when none was
// extracted.
func (c Candidate) Text() string {
	if c.Content == nil {
		return ""
	}
	return *c.Content
}
