package metadata

import "strings"

// RecordKind classifies one archive entry by name
type RecordKind string

const (
	// KindMetadata is a per-package metadata record
	KindMetadata RecordKind = "metadata"

	// KindDownloadCounts is an aggregate popularity-statistics record
	KindDownloadCounts RecordKind = "download_counts"

	// KindNoise is anything else in the archive; discarded
	KindNoise RecordKind = "noise"
)

const (
	metadataSuffix       = ".pkg.json"
	downloadCountsSuffix = "download_counts.json"
)

// ClassifyEntry decides what an archive entry is by suffix match on its
// name. The statistics suffix is checked first because it would otherwise
// also match the metadata suffix check for some layouts.
func ClassifyEntry(name string) RecordKind {
	switch {
	case strings.HasSuffix(name, downloadCountsSuffix):
		return KindDownloadCounts
	case strings.HasSuffix(name, metadataSuffix):
		return KindMetadata
	default:
		return KindNoise
	}
}
