package infrastructure

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yourusername/pkgsync-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// repositoryRow persists one configured repository and its last-known
// change-token. Position preserves the configured iteration order, which
// determines extraction order during a sync.
type repositoryRow struct {
	URI      string `gorm:"primaryKey"`
	Name     string
	LastETag string `gorm:"column:last_etag"`
	Position int `gorm:"index"`
}

func (repositoryRow) TableName() string { return "repositories" }

// packageRow persists one available package descriptor
type packageRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Identifier  string `gorm:"index"`
	Name        string
	Version     string
	Abstract    string
	Download    string
	SpecVersion string
	Depends     string // JSON-encoded identifier list
	Repository  string
}

func (packageRow) TableName() string { return "available_packages" }

// downloadCountRow persists one package's popularity count
type downloadCountRow struct {
	Identifier string `gorm:"primaryKey"`
	Count      int64
}

func (downloadCountRow) TableName() string { return "download_counts" }

// SQLiteRegistry implements domain.Registry using SQLite. Writes are
// staged in memory and committed in a single transaction by Save, so
// readers never observe a partially-applied batch.
type SQLiteRegistry struct {
	db *gorm.DB

	mu              sync.Mutex
	stagedAvailable []*domain.PackageDescriptor
	stagedCounts    *domain.DownloadCountTable
	stagedTokens    map[string]string
}

// NewSQLiteRegistry opens (or creates) the registry database and brings
// the repositories table in line with the configured set.
func NewSQLiteRegistry(dbPath string, repos []domain.RepositoryConfig) (*SQLiteRegistry, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	if err := db.AutoMigrate(&repositoryRow{}, &packageRow{}, &downloadCountRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate registry database: %w", err)
	}

	registry := &SQLiteRegistry{
		db:           db,
		stagedTokens: make(map[string]string),
	}

	if err := registry.seedRepositories(repos); err != nil {
		return nil, err
	}

	return registry, nil
}

// seedRepositories upserts the configured repositories, preserving any
// cached change-tokens, and removes repositories no longer configured.
func (r *SQLiteRegistry) seedRepositories(repos []domain.RepositoryConfig) error {
	uris := make([]string, 0, len(repos))
	rows := make([]repositoryRow, 0, len(repos))
	for i, repo := range repos {
		uris = append(uris, repo.URI)
		rows = append(rows, repositoryRow{URI: repo.URI, Name: repo.Name, Position: i})
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(uris) == 0 {
			return tx.Where("1 = 1").Delete(&repositoryRow{}).Error
		}
		if err := tx.Where("uri NOT IN ?", uris).Delete(&repositoryRow{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uri"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "position"}),
		}).Create(&rows).Error
	})
}

// Repositories returns the configured repositories in configured order
func (r *SQLiteRegistry) Repositories() ([]*domain.Repository, error) {
	var rows []repositoryRow
	if err := r.db.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	repos := make([]*domain.Repository, 0, len(rows))
	for _, row := range rows {
		repos = append(repos, &domain.Repository{
			URI:      row.URI,
			Name:     row.Name,
			LastETag: row.LastETag,
		})
	}
	return repos, nil
}

// SetAvailable stages the full replacement set of available packages
func (r *SQLiteRegistry) SetAvailable(descriptors []*domain.PackageDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stagedAvailable = descriptors
}

// SetDownloadCounts stages the batch's download-count table
func (r *SQLiteRegistry) SetDownloadCounts(table *domain.DownloadCountTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stagedCounts = table
}

// SetRepositoryToken stages a repository's newly-captured change-token
func (r *SQLiteRegistry) SetRepositoryToken(uri, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stagedTokens[uri] = token
}

// Save commits all staged changes in one transaction. On success the
// staging area is cleared; on failure the database is left untouched and
// the staged changes remain.
func (r *SQLiteRegistry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if r.stagedAvailable != nil {
			if err := tx.Where("1 = 1").Delete(&packageRow{}).Error; err != nil {
				return err
			}
			rows := make([]packageRow, 0, len(r.stagedAvailable))
			for _, descriptor := range r.stagedAvailable {
				depends, err := json.Marshal(descriptor.Depends)
				if err != nil {
					return fmt.Errorf("failed to encode dependencies of %s: %w", descriptor.Identifier, err)
				}
				rows = append(rows, packageRow{
					Identifier:  descriptor.Identifier,
					Name:        descriptor.Name,
					Version:     descriptor.Version,
					Abstract:    descriptor.Abstract,
					Download:    descriptor.Download,
					SpecVersion: descriptor.SpecVersion,
					Depends:     string(depends),
					Repository:  descriptor.Repository,
				})
			}
			if len(rows) > 0 {
				if err := tx.CreateInBatches(&rows, 500).Error; err != nil {
					return err
				}
			}
		}

		if r.stagedCounts != nil {
			if err := tx.Where("1 = 1").Delete(&downloadCountRow{}).Error; err != nil {
				return err
			}
			for _, identifier := range r.stagedCounts.Identifiers() {
				count, _ := r.stagedCounts.Get(identifier)
				if err := tx.Create(&downloadCountRow{Identifier: identifier, Count: count}).Error; err != nil {
					return err
				}
			}
		}

		for uri, token := range r.stagedTokens {
			if err := tx.Model(&repositoryRow{}).Where("uri = ?", uri).
				Update("last_etag", token).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	r.stagedAvailable = nil
	r.stagedCounts = nil
	r.stagedTokens = make(map[string]string)
	return nil
}

// Available returns the committed set of available packages
func (r *SQLiteRegistry) Available() ([]*domain.PackageDescriptor, error) {
	var rows []packageRow
	if err := r.db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	descriptors := make([]*domain.PackageDescriptor, 0, len(rows))
	for _, row := range rows {
		descriptor := &domain.PackageDescriptor{
			Identifier:  row.Identifier,
			Name:        row.Name,
			Version:     row.Version,
			Abstract:    row.Abstract,
			Download:    row.Download,
			SpecVersion: row.SpecVersion,
			Repository:  row.Repository,
		}
		if row.Depends != "" {
			if err := json.Unmarshal([]byte(row.Depends), &descriptor.Depends); err != nil {
				return nil, fmt.Errorf("failed to decode dependencies of %s: %w", row.Identifier, err)
			}
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

// DownloadCount returns the committed count for an identifier, or zero
// if the identifier has no recorded count.
func (r *SQLiteRegistry) DownloadCount(identifier string) (int64, error) {
	var row downloadCountRow
	err := r.db.First(&row, "identifier = ?", identifier).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Count, nil
}

// Inconsistencies reports packages whose declared dependencies are
// missing from the available set, as human-readable strings.
func (r *SQLiteRegistry) Inconsistencies() ([]string, error) {
	descriptors, err := r.Available()
	if err != nil {
		return nil, err
	}

	available := make(map[string]bool, len(descriptors))
	for _, descriptor := range descriptors {
		available[descriptor.Identifier] = true
	}

	var report []string
	for _, descriptor := range descriptors {
		for _, dep := range descriptor.Depends {
			if !available[dep] {
				report = append(report, fmt.Sprintf(
					"%s %s depends on %s, which is not available",
					descriptor.Identifier, descriptor.Version, dep))
			}
		}
	}
	return report, nil
}

// Close closes the database connection
func (r *SQLiteRegistry) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
