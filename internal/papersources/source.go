package papersources

import (
	"context"

	"github.com/helixir/conference-catalog-service/internal/domain"
)

// AuthorIndex resolves author names and venue papers against a bibliometric index.
//
// Lookups that find nothing, and lookups that fail for expected reasons
// (rate limiting, timeouts, unexpected statuses, malformed bodies), return an
// error satisfying errors.Is(err, domain.ErrNotFound). Any other error, such as
// context cancellation, is returned as-is.
type AuthorIndex interface {
	// ResolveAuthor returns the best-matching index record for a free-text name.
	ResolveAuthor(ctx context.Context, name string) (*domain.ResolvedAuthor, error)

	// GetAuthorByID fetches one author record by its index identifier.
	GetAuthorByID(ctx context.Context, externalID string) (*domain.ResolvedAuthor, error)

	// SearchPapersByVenue returns up to limit papers for a venue name. It never
	// fails; lookup problems yield an empty slice.
	SearchPapersByVenue(ctx context.Context, conferenceName string, limit int) []domain.PaperRecord

	// GetConferenceInfo aggregates venue papers for a conference name.
	GetConferenceInfo(ctx context.Context, conferenceName string) (*domain.ConferenceInfo, error)

	// ClearCache drops every cached author, paper and conference lookup.
	ClearCache()
}

// RankingSource looks up the official rank of a venue.
type RankingSource interface {
	// LookupVenue returns the ranking record for name, or an error satisfying
	// errors.Is(err, domain.ErrNotFound) when the source has none.
	LookupVenue(ctx context.Context, name string) (*domain.CoreRanking, error)

	// ClearCache drops every cached ranking lookup.
	ClearCache()
}
