package ports

import "github.com/mikey/email-concierge/internal/core"

// DraftStore is a draft cache that owns background resources
type DraftStore interface {
	core.DraftCache

	// Stop stops background cleanup and releases connections
	Stop()
}
