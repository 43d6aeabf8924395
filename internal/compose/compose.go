// Package compose renders the final digest text and enforces the caption
// length limit.
package compose

import (
	"strings"
	"unicode/utf8"

	"ctrelay/internal/domain"
)

// DefaultCaptionMax is the Telegram media caption limit.
const DefaultCaptionMax = 1024

const ellipsis = "..."

// Compose renders the digest as a single text block:
// a source attribution line, then each section as "Label:\nText", sections
// separated by a blank line, in the digest's insertion order.
func Compose(channelLabel string, d domain.Digest) string {
	sections := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		sections = append(sections, e.Label+":\n"+e.Text)
	}

	var b strings.Builder
	b.WriteString("From ")
	b.WriteString(channelLabel)
	b.WriteString(":\n\n")
	b.WriteString(strings.Join(sections, "\n\n"))
	return b.String()
}

// Truncate clips s to at most max codepoints. Text within the limit is
// returned verbatim; longer text keeps the first max-3 codepoints and gets a
// three-character ellipsis marker, for an output of exactly max codepoints.
// Truncation happens on codepoint boundaries, never mid-rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= len(ellipsis) {
		// No room for a marker.
		return string(runes[:max])
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}
