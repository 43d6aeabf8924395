package domain

import "context"

// Translation is one backend's successful output.
type Translation struct {
	Label string // digest section header: the backend or model name
	Text  string
}

// Backend is the interface all translation backends implement.
//
// Translate must contain every internal fault (network error, malformed
// response, missing credential) and report it as an error; it never panics
// across the orchestrator boundary.
type Backend interface {
	// Name is the config/log identifier (lowercase).
	Name() string
	// Label is the display name used for digest sections and failure
	// placeholders.
	Label() string
	// Authoritative reports whether a success from this backend makes the
	// rest of the chain redundant.
	Authoritative() bool
	Translate(ctx context.Context, text string) (*Translation, error)
}

// DigestEntry is one labelled section of a digest.
type DigestEntry struct {
	Label string
	Text  string
}

// Digest is the ordered original + translations block for one message.
// Entries keep insertion order; the Original entry is always first.
type Digest struct {
	Entries []DigestEntry
}

// Add appends a section to the digest.
func (d *Digest) Add(label, text string) {
	d.Entries = append(d.Entries, DigestEntry{Label: label, Text: text})
}

// Get returns the text of the first entry with the given label.
func (d *Digest) Get(label string) (string, bool) {
	for _, e := range d.Entries {
		if e.Label == label {
			return e.Text, true
		}
	}
	return "", false
}

// Len returns the number of sections.
func (d *Digest) Len() int { return len(d.Entries) }
