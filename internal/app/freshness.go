package app

import (
	"context"

	"github.com/yourusername/pkgsync-go/internal/domain"
	"go.uber.org/zap"
)

// allUnchanged is the freshness gate: it reports true iff every
// repository has a non-empty cached change-token that equals the probe's
// current token for that URI. It is read-only and never mutates cached
// tokens. A probe failure counts as "changed" so a refetch runs instead
// of silently reporting no changes.
func (m *SyncManager) allUnchanged(ctx context.Context, repos []*domain.Repository) bool {
	for _, repo := range repos {
		if repo.LastETag == "" {
			return false
		}

		token, err := m.probe.CurrentToken(ctx, repo.URI)
		if err != nil {
			m.logger.Debug("Change-token probe failed, forcing sync",
				zap.String("uri", repo.URI),
				zap.Error(err))
			return false
		}

		if token != repo.LastETag {
			return false
		}
	}

	return true
}

// dedupeByURI removes duplicate repositories, keeping the first
// occurrence so the configured iteration order is preserved.
func dedupeByURI(repos []*domain.Repository) []*domain.Repository {
	seen := make(map[string]bool, len(repos))
	result := make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		if seen[repo.URI] {
			continue
		}
		seen[repo.URI] = true
		result = append(result, repo)
	}
	return result
}
