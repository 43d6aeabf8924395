package domain

import (
	"strings"
	"time"
)

// MediaKind classifies an attachment held by the chat provider.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaVideo    MediaKind = "video"
)

// MediaRef is an opaque handle to an attachment. The file itself stays with
// the chat provider; forwarding reuses the provider-side file ID.
type MediaRef struct {
	FileID string
	Kind   MediaKind
}

// IncomingMessage is one post captured from a watched source channel.
// It is owned by a single pipeline invocation and never retained after
// dispatch.
type IncomingMessage struct {
	Channel    string // source channel username, without the @ prefix
	ChannelID  int64
	Text       string
	Media      *MediaRef // nil when the post has no attachment
	ReceivedAt time.Time
}

// HasContent reports whether the message carries anything worth processing.
func (m IncomingMessage) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || m.Media != nil
}

// OutboundPost is a composed digest ready for dispatch to a sink.
type OutboundPost struct {
	Caption string
	Media   *MediaRef
}
