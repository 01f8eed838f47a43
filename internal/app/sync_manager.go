package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/pkgsync-go/internal/archive"
	"github.com/yourusername/pkgsync-go/internal/domain"
	"github.com/yourusername/pkgsync-go/internal/metadata"
	"go.uber.org/zap"
)

// SyncManager drives the full sync batch: freshness check, concurrent
// fetch, sequential per-repository extraction, and the atomic commit.
type SyncManager struct {
	registry domain.Registry
	engine   domain.TransferEngine
	probe    domain.TokenProbe
	reporter domain.Reporter
	logger   *zap.Logger

	// syncMu serializes batches; the registry is only ever mutated by
	// one committed batch at a time
	syncMu sync.Mutex

	mu     sync.RWMutex
	status SyncStatus
}

// SyncStatus describes the most recent sync run
type SyncStatus struct {
	Running      bool               `json:"running"`
	LastOutcome  domain.SyncOutcome `json:"last_outcome,omitempty"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty"`
	PackageCount int                `json:"package_count"`
}

// NewSyncManager creates a new sync manager
func NewSyncManager(
	registry domain.Registry,
	engine domain.TransferEngine,
	probe domain.TokenProbe,
	reporter domain.Reporter,
	logger *zap.Logger,
) *SyncManager {
	return &SyncManager{
		registry: registry,
		engine:   engine,
		probe:    probe,
		reporter: reporter,
		logger:   logger,
	}
}

// Status returns the most recent sync status
func (m *SyncManager) Status() SyncStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SyncAll runs one full sync batch across all configured repositories
// and returns the batch-level outcome. Fatal conditions return
// OutcomeFailed together with the error that aborted the batch; the
// registry is never left holding data from an incomplete extraction.
func (m *SyncManager) SyncAll(ctx context.Context) (domain.SyncOutcome, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	m.setRunning(true)
	outcome, err := m.syncAll(ctx)
	m.finish(outcome)

	return outcome, err
}

func (m *SyncManager) syncAll(ctx context.Context) (domain.SyncOutcome, error) {
	batchID := uuid.New().String()
	log := m.logger.With(zap.String("batch", batchID))

	repos, err := m.registry.Repositories()
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("failed to load repositories: %w", err)
	}
	repos = dedupeByURI(repos)

	if len(repos) == 0 {
		log.Info("No repositories configured")
		return domain.OutcomeNoChanges, nil
	}

	if m.allUnchanged(ctx, repos) {
		log.Info("All repositories unchanged, skipping sync")
		m.reporter.Message("All repositories are up to date")
		return domain.OutcomeNoChanges, nil
	}

	// Fetch every archive concurrently. Completions arrive in arbitrary
	// order, so capture them keyed by URI.
	targets := make([]string, 0, len(repos))
	for _, repo := range repos {
		targets = append(targets, repo.URI)
	}

	log.Info("Fetching repository archives", zap.Int("count", len(targets)))

	results := make(chan domain.TransferResult, len(targets))
	fetchErr := m.engine.FetchAll(ctx, targets, func(result domain.TransferResult) {
		results <- result
	})
	close(results)

	artifacts := make(map[string]domain.TransferResult, len(targets))
	for result := range results {
		artifacts[result.URI] = result
	}

	// Temporary artifact files leave no residue, success or failure
	defer func() {
		for _, artifact := range artifacts {
			if artifact.LocalPath != "" {
				if err := os.Remove(artifact.LocalPath); err != nil && !os.IsNotExist(err) {
					log.Warn("Failed to delete temporary artifact",
						zap.String("path", artifact.LocalPath),
						zap.Error(err))
				}
			}
		}
	}()

	if fetchErr != nil {
		return domain.OutcomeFailed, fmt.Errorf("transfer batch failed: %w", fetchErr)
	}

	// Extraction is sequential, in configured repository order. The
	// order matters: when several repositories carry a statistics
	// record, the last one processed wins (documented behavior).
	var descriptors []*domain.PackageDescriptor
	var counts *domain.DownloadCountTable

	for _, repo := range repos {
		artifact, ok := artifacts[repo.URI]
		if !ok {
			return domain.OutcomeFailed, fmt.Errorf("no download completed for %s", repo.URI)
		}
		if artifact.Err != nil {
			return domain.OutcomeFailed, fmt.Errorf("download of %s failed: %w", repo.URI, artifact.Err)
		}

		repoDescriptors, repoCounts, err := m.extractRepository(log, repo, artifact.LocalPath)
		if err != nil {
			return domain.OutcomeFailed, fmt.Errorf("extraction of %s failed: %w", repo.Name, err)
		}

		descriptors = append(descriptors, repoDescriptors...)
		if repoCounts != nil {
			counts = repoCounts
		}

		log.Info("Repository extracted",
			zap.String("repository", repo.Name),
			zap.Int("packages", len(repoDescriptors)))
	}

	if len(descriptors) == 0 {
		log.Info("No package metadata found, nothing to commit")
		return domain.OutcomeNoChanges, nil
	}

	// Commit descriptors, statistics, and change-tokens together
	m.registry.SetAvailable(descriptors)
	if counts != nil {
		m.registry.SetDownloadCounts(counts)
	}
	for _, repo := range repos {
		m.registry.SetRepositoryToken(repo.URI, artifacts[repo.URI].ChangeToken)
	}

	if err := m.registry.Save(); err != nil {
		return domain.OutcomeFailed, fmt.Errorf("failed to commit registry: %w", err)
	}

	m.reporter.Message(fmt.Sprintf("Updated %d packages from %d repositories", len(descriptors), len(repos)))
	m.reportInconsistencies(log)

	m.mu.Lock()
	m.status.PackageCount = len(descriptors)
	m.mu.Unlock()

	log.Info("Sync committed", zap.Int("packages", len(descriptors)))
	return domain.OutcomeUpdated, nil
}

// extractRepository traverses one downloaded archive and returns the
// descriptors and, if the archive carried one, its statistics table.
func (m *SyncManager) extractRepository(
	log *zap.Logger,
	repo *domain.Repository,
	path string,
) ([]*domain.PackageDescriptor, *domain.DownloadCountTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("downloaded archive not found at %s: %w", path, err)
	}

	kind, err := archive.Detect(path)
	if err != nil {
		return nil, nil, err
	}

	walker := archive.NewWalker(path, kind, log, func(percent int) {
		m.reporter.Progress(percent, repo.Name)
	})

	var descriptors []*domain.PackageDescriptor
	var counts *domain.DownloadCountTable

	err = walker.Walk(func(entry archive.Entry) error {
		switch metadata.ClassifyEntry(entry.Name) {
		case metadata.KindDownloadCounts:
			raw, err := io.ReadAll(entry.Reader)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", entry.Name, err)
			}
			table, err := metadata.ParseDownloadCounts(raw, entry.Name)
			if err != nil {
				return err
			}
			counts = table

		case metadata.KindMetadata:
			raw, err := io.ReadAll(entry.Reader)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", entry.Name, err)
			}
			descriptor, err := metadata.Parse(raw, entry.Name)
			if err != nil {
				if metadata.IsBenign(err) {
					// Record from a newer client generation; skip it and
					// keep loading the rest of the archive
					log.Info("Skipping metadata record from newer client",
						zap.String("record", entry.Name),
						zap.Error(err))
					return nil
				}
				log.Error("Corrupt metadata record",
					zap.String("record", entry.Name),
					zap.String("cause", metadata.InnermostMessage(err)))
				return err
			}
			if descriptor != nil {
				descriptor.Repository = repo.URI
				descriptors = append(descriptors, descriptor)
			}

		default:
			log.Debug("Ignoring archive entry", zap.String("entry", entry.Name))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return descriptors, counts, nil
}

// reportInconsistencies surfaces the registry's post-commit consistency
// report through the user-facing reporter.
func (m *SyncManager) reportInconsistencies(log *zap.Logger) {
	inconsistencies, err := m.registry.Inconsistencies()
	if err != nil {
		log.Warn("Consistency check failed", zap.Error(err))
		return
	}
	for _, line := range inconsistencies {
		m.reporter.Message(line)
	}
}

func (m *SyncManager) setRunning(running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Running = running
}

func (m *SyncManager) finish(outcome domain.SyncOutcome) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Running = false
	m.status.LastOutcome = outcome
	m.status.LastSyncedAt = &now
}
