// package services defines the video search [Provider] and the HTTP clients the player uses to reach its gateways
package services

import (
	"context"

	"github.com/desertthunder/zenithx/internal/models"
)

// Provider is an upstream video search backend.
type Provider interface {
	// Search returns up to limit tracks ranked by relevance to query.
	// A non-positive limit means the provider's page size.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Related returns the single best track related to videoID, or nil when there is none.
	Related(ctx context.Context, videoID string) (*models.Track, error)

	// Name returns the name of the provider (e.g., "YouTube")
	Name() string
}

// IsConfigured reports whether p has the credentials it needs.
// Providers that cannot tell are assumed to be configured.
func IsConfigured(p Provider) bool {
	if c, ok := p.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}
