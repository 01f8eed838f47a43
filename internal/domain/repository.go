package domain

// Repository represents one configured remote source of package metadata
type Repository struct {
	URI      string `json:"uri" gorm:"primaryKey"`
	Name     string `json:"name"`
	LastETag string `json:"last_etag,omitempty"`
}

// Registry defines the interface for the local package registry. Writes
// are staged in memory; Save commits every staged change atomically or
// leaves the registry untouched.
type Registry interface {
	// Repositories returns all configured repositories
	Repositories() ([]*Repository, error)

	// SetAvailable stages the full replacement set of available packages
	SetAvailable(descriptors []*PackageDescriptor)

	// SetDownloadCounts stages the batch's download-count table
	SetDownloadCounts(table *DownloadCountTable)

	// SetRepositoryToken stages a repository's newly-captured change-token
	SetRepositoryToken(uri, token string)

	// Save commits all staged changes in one transaction
	Save() error

	// Available returns the committed set of available packages
	Available() ([]*PackageDescriptor, error)

	// DownloadCount returns the committed count for an identifier
	DownloadCount(identifier string) (int64, error)

	// Inconsistencies returns human-readable descriptions of packages
	// whose declared dependencies are missing from the available set
	Inconsistencies() ([]string, error)
}
