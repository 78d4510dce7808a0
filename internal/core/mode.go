// Package core is the orchestration layer.  It composes the device
// directory, transports, the session engine and the console into
// complete operational modes, and provides a builder that selects the
// right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  console  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of rfchat (chat, listen,
// or device listing).  Each mode owns its full lifecycle from
// connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
