// Package message implements the plain-text chat framing shared with
// the paired peer: "tag SPACE body", no length prefix, no escaping.
// Message boundaries are whatever a single read returned.
package message

import (
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strings"
)

// Anonymous is the sender reported for chunks that carry no tag.
const Anonymous = "anonymous"

// MaxChunk bounds a single read from the transport.
const MaxChunk = 512

var whitespaceRun = regexp.MustCompile(`\s+`)

// Message is one decoded inbound chunk.
type Message struct {
	Sender string
	Body   string
}

// Encode frames body for the wire under the given identity tag.
func Encode(identity, body string) []byte {
	return []byte(identity + " " + body)
}

// Decode splits chunk on its first whitespace run.  A chunk with no
// whitespace is reported as coming from [Anonymous].
func Decode(chunk []byte) Message {
	text := string(chunk)
	parts := whitespaceRun.Split(text, 2)
	if len(parts) == 2 {
		return Message{Sender: parts[0], Body: parts[1]}
	}
	return Message{Sender: Anonymous, Body: text}
}

// SanitizeIdentity trims s and collapses every whitespace run into a
// single underscore so the tag survives Decode.  It fails on input
// that is empty after trimming.
func SanitizeIdentity(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("username must not be empty")
	}
	return whitespaceRun.ReplaceAllString(s, "_"), nil
}

// GuestIdentity returns a random "guestNNN" tag.
func GuestIdentity() string {
	return fmt.Sprintf("guest%d", rand.Intn(1000))
}

// DefaultIdentity derives a tag from the host name, falling back to a
// guest tag when it is unavailable.
func DefaultIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		return GuestIdentity()
	}
	id, err := SanitizeIdentity(host)
	if err != nil {
		return GuestIdentity()
	}
	return id
}
