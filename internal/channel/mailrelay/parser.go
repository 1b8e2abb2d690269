// Package mailrelay parses inbound email delivered through an SNS/SES-style
// mail-receiving pipeline. Field extraction runs fixed textual patterns over
// the raw message, one strategy function per field, so individual rules can
// be hardened without touching the pipeline.
package mailrelay

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/connectohq/connecto/internal/channel"
)

var (
	senderPattern = regexp.MustCompile(`From: .*?<(.+?)>`)
	bodyPattern   = regexp.MustCompile(`(?s)Content-Type: text/plain;.*?\n\n(.*?)\n\n--`)
)

// Parser extracts message candidates from raw RFC 822 text. The recipient
// domain anchors thread-id extraction: digits immediately preceding
// "@<domain>" name the thread.
type Parser struct {
	threadPattern *regexp.Regexp
}

// NewParser creates a parser bound to the given recipient domain.
func NewParser(recipientDomain string) *Parser {
	return &Parser{
		threadPattern: regexp.MustCompile(`(\d+)@` + regexp.QuoteMeta(recipientDomain)),
	}
}

// Parse extracts the thread hint, sender hint, and plain-text body from raw
// email text. Fields that fail to match are nil, never an error.
func (p *Parser) Parse(raw string) channel.Candidate {
	return channel.Candidate{
		Channel:     channel.TypeMailRelay,
		ThreadID:    p.ExtractThreadID(raw),
		SenderEmail: ExtractSenderEmail(raw),
		Content:     ExtractPlainBody(raw),
	}
}

// ExtractThreadID finds the digits immediately preceding the recipient
// domain in the raw text, e.g. "42@chat.example.com" yields 42.
func (p *Parser) ExtractThreadID(raw string) *int64 {
	match := p.threadPattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// ExtractSenderEmail finds the address inside angle brackets after the
// first "From:" label, returned exactly as written.
func ExtractSenderEmail(raw string) *string {
	match := senderPattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	addr := match[1]
	return &addr
}

// ExtractPlainBody finds the first text/plain section and returns everything
// between the blank line after its content-type declaration and the next
// boundary marker, trimmed of surrounding whitespace.
func ExtractPlainBody(raw string) *string {
	match := bodyPattern.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}
	body := strings.TrimSpace(match[1])
	return &body
}
