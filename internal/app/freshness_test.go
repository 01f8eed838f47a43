package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/pkgsync-go/internal/domain"
	"go.uber.org/zap"
)

func newFreshnessManager(probe domain.TokenProbe) *SyncManager {
	return NewSyncManager(newMockRegistry(), &mockEngine{}, probe, &captureReporter{}, zap.NewNop())
}

func TestAllUnchanged_MatchingTokens(t *testing.T) {
	probe := &mockProbe{tokens: map[string]string{
		"https://repo.example/a": "etag-a",
		"https://repo.example/b": "etag-b",
	}}
	mgr := newFreshnessManager(probe)

	unchanged := mgr.allUnchanged(context.Background(), []*domain.Repository{
		{URI: "https://repo.example/a", LastETag: "etag-a"},
		{URI: "https://repo.example/b", LastETag: "etag-b"},
	})
	assert.True(t, unchanged)
}

func TestAllUnchanged_AnyMismatchForcesSync(t *testing.T) {
	probe := &mockProbe{tokens: map[string]string{
		"https://repo.example/a": "etag-a",
		"https://repo.example/b": "etag-b-new",
	}}
	mgr := newFreshnessManager(probe)

	unchanged := mgr.allUnchanged(context.Background(), []*domain.Repository{
		{URI: "https://repo.example/a", LastETag: "etag-a"},
		{URI: "https://repo.example/b", LastETag: "etag-b-old"},
	})
	assert.False(t, unchanged)
}

func TestAllUnchanged_ProbeFailureCountsAsChanged(t *testing.T) {
	probe := &mockProbe{
		tokens: map[string]string{"https://repo.example/a": "etag-a"},
		errs:   map[string]error{"https://repo.example/a": errors.New("connection refused")},
	}
	mgr := newFreshnessManager(probe)

	unchanged := mgr.allUnchanged(context.Background(), []*domain.Repository{
		{URI: "https://repo.example/a", LastETag: "etag-a"},
	})
	assert.False(t, unchanged, "a probe failure must force a refetch, never report no changes")
}

func TestDedupeByURI(t *testing.T) {
	repos := []*domain.Repository{
		{URI: "https://repo.example/a", Name: "first"},
		{URI: "https://repo.example/b", Name: "second"},
		{URI: "https://repo.example/a", Name: "duplicate"},
	}

	deduped := dedupeByURI(repos)
	assert.Len(t, deduped, 2)
	assert.Equal(t, "first", deduped[0].Name, "the first occurrence wins")
	assert.Equal(t, "second", deduped[1].Name)
}
