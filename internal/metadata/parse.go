package metadata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/pkgsync-go/internal/domain"
)

// Highest metadata schema version this client understands. Records
// declaring a newer version are produced by newer client generations and
// must be skipped, not reported as corrupt.
const (
	supportedSpecMajor = 1
	supportedSpecMinor = 30
)

// rawRecord mirrors the on-the-wire metadata record shape
type rawRecord struct {
	SpecVersion json.RawMessage `json:"spec_version"`
	Kind        string          `json:"kind,omitempty"`
	Identifier  string          `json:"identifier"`
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Abstract    string          `json:"abstract,omitempty"`
	Download    string          `json:"download,omitempty"`
	Depends     []rawRelation   `json:"depends,omitempty"`
}

type rawRelation struct {
	Identifier string `json:"identifier"`
}

// Parse turns one metadata record's raw text into a PackageDescriptor.
// Blank input yields (nil, nil): the record produces no descriptor and
// loading continues. All failures are returned as classified ParseErrors;
// use IsBenign to triage them.
func Parse(raw []byte, record string) (*domain.PackageDescriptor, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}

	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, NewParseError(ClassMalformed, record, "invalid metadata record", err)
	}

	major, minor, err := parseSpecVersion(rec.SpecVersion)
	if err != nil {
		return nil, NewParseError(ClassMalformed, record, "invalid spec_version", err)
	}
	if major > supportedSpecMajor || (major == supportedSpecMajor && minor > supportedSpecMinor) {
		return nil, NewParseError(ClassUnsupportedSpec, record,
			fmt.Sprintf("record requires spec v%d.%d, client supports up to v%d.%d",
				major, minor, supportedSpecMajor, supportedSpecMinor), nil)
	}

	// Kinds other than plain packages are reserved for newer clients
	if rec.Kind != "" && rec.Kind != "package" {
		return nil, NewParseError(ClassForwardCompatible, record,
			fmt.Sprintf("unknown record kind %q", rec.Kind), nil)
	}

	if rec.Identifier == "" {
		return nil, NewParseError(ClassMalformed, record, "missing identifier", nil)
	}
	if rec.Version == "" {
		return nil, NewParseError(ClassMalformed, record, "missing version", nil)
	}

	descriptor := &domain.PackageDescriptor{
		Identifier:  rec.Identifier,
		Name:        rec.Name,
		Version:     rec.Version,
		Abstract:    rec.Abstract,
		Download:    rec.Download,
		SpecVersion: fmt.Sprintf("v%d.%d", major, minor),
	}
	for _, dep := range rec.Depends {
		if dep.Identifier != "" {
			descriptor.Depends = append(descriptor.Depends, dep.Identifier)
		}
	}

	return descriptor, nil
}

// parseSpecVersion accepts the two wire forms of spec_version: the bare
// number 1 and strings like "v1.22".
func parseSpecVersion(raw json.RawMessage) (major, minor int, err error) {
	if len(raw) == 0 {
		// Records predating spec_version are v1.0
		return 1, 0, nil
	}

	var asNumber int
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, 0, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0, 0, fmt.Errorf("spec_version is neither a number nor a string: %s", string(raw))
	}

	trimmed := strings.TrimPrefix(asString, "v")
	parts := strings.SplitN(trimmed, ".", 2)
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spec_version %q: %w", asString, err)
	}
	if len(parts) == 2 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid spec_version %q: %w", asString, err)
		}
	}
	return major, minor, nil
}

// ParseDownloadCounts parses a statistics record: a JSON object mapping
// package identifiers to integer popularity counts.
func ParseDownloadCounts(raw []byte, record string) (*domain.DownloadCountTable, error) {
	var counts map[string]int64
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, NewParseError(ClassMalformed, record, "invalid download counts record", err)
	}

	table := domain.NewDownloadCountTable()
	for identifier, count := range counts {
		table.Set(identifier, count)
	}
	return table, nil
}
