package domain

import "sort"

// PackageDescriptor is the parsed form of one metadata record. The sync
// pipeline treats it as atomic; the registry owns its long-term storage.
type PackageDescriptor struct {
	Identifier  string   `json:"identifier"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Abstract    string   `json:"abstract,omitempty"`
	Download    string   `json:"download,omitempty"`
	SpecVersion string   `json:"spec_version"`
	Depends     []string `json:"depends,omitempty"`

	// Repository is the URI of the repository this descriptor came from
	Repository string `json:"repository,omitempty"`
}

// DownloadCountTable maps package identifiers to popularity counts.
// At most one table is honored per sync batch: when several repositories
// each carry a statistics record, the last repository processed wins.
type DownloadCountTable struct {
	counts map[string]int64
}

// NewDownloadCountTable creates an empty table
func NewDownloadCountTable() *DownloadCountTable {
	return &DownloadCountTable{counts: make(map[string]int64)}
}

// Set records the count for an identifier
func (t *DownloadCountTable) Set(identifier string, count int64) {
	t.counts[identifier] = count
}

// Get returns the count for an identifier and whether it is present
func (t *DownloadCountTable) Get(identifier string) (int64, bool) {
	count, ok := t.counts[identifier]
	return count, ok
}

// Len returns the number of identifiers in the table
func (t *DownloadCountTable) Len() int {
	return len(t.counts)
}

// Identifiers returns all identifiers in ascending key order
func (t *DownloadCountTable) Identifiers() []string {
	ids := make([]string, 0, len(t.counts))
	for id := range t.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
