package metadata

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ValidRecord(t *testing.T) {
	raw := []byte(`{
		"spec_version": "v1.4",
		"identifier": "astro-tools",
		"name": "Astro Tools",
		"version": "2.1.0",
		"abstract": "Utilities for orbital calculations",
		"download": "https://example.com/astro-tools-2.1.0.zip",
		"depends": [{"identifier": "core-lib"}]
	}`)

	descriptor, err := Parse(raw, "astro-tools-2.1.0.pkg.json")
	require.NoError(t, err)
	require.NotNil(t, descriptor)
	assert.Equal(t, "astro-tools", descriptor.Identifier)
	assert.Equal(t, "2.1.0", descriptor.Version)
	assert.Equal(t, "v1.4", descriptor.SpecVersion)
	assert.Equal(t, []string{"core-lib"}, descriptor.Depends)
}

func TestParse_NumericSpecVersion(t *testing.T) {
	raw := []byte(`{"spec_version": 1, "identifier": "a", "name": "A", "version": "1.0"}`)

	descriptor, err := Parse(raw, "a.pkg.json")
	require.NoError(t, err)
	assert.Equal(t, "v1.0", descriptor.SpecVersion)
}

func TestParse_BlankInputYieldsNoDescriptor(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t\n"} {
		descriptor, err := Parse([]byte(raw), "blank.pkg.json")
		require.NoError(t, err)
		assert.Nil(t, descriptor)
	}
}

func TestParse_NewerSpecVersionIsBenign(t *testing.T) {
	raw := []byte(`{"spec_version": "v99.1", "identifier": "future", "version": "1.0"}`)

	descriptor, err := Parse(raw, "future.pkg.json")
	require.Error(t, err)
	assert.Nil(t, descriptor)
	assert.True(t, IsBenign(err), "newer spec version must be skippable")
}

func TestParse_UnknownKindIsBenign(t *testing.T) {
	raw := []byte(`{"spec_version": "v1.2", "kind": "bundle", "identifier": "x", "version": "1.0"}`)

	_, err := Parse(raw, "x.pkg.json")
	require.Error(t, err)
	assert.True(t, IsBenign(err))
}

func TestParse_InvalidJSONIsFatal(t *testing.T) {
	_, err := Parse([]byte(`{not json`), "bad.pkg.json")
	require.Error(t, err)
	assert.False(t, IsBenign(err), "corrupt record must not be skippable")
}

func TestParse_MissingIdentifierIsFatal(t *testing.T) {
	raw := []byte(`{"spec_version": "v1.2", "name": "No ID", "version": "1.0"}`)

	_, err := Parse(raw, "noid.pkg.json")
	require.Error(t, err)
	assert.False(t, IsBenign(err))
}

func TestIsBenign_WalksWrappedCauses(t *testing.T) {
	inner := NewParseError(ClassUnsupportedSpec, "deep.pkg.json", "requires newer client", nil)
	wrapped := fmt.Errorf("extraction of repo failed: %w",
		fmt.Errorf("entry deep.pkg.json: %w", inner))

	assert.True(t, IsBenign(wrapped), "benign marker must be found at any depth")

	fatal := fmt.Errorf("outer: %w", NewParseError(ClassMalformed, "bad.pkg.json", "corrupt", nil))
	assert.False(t, IsBenign(fatal))
}

func TestFindCause_MultiErrorChain(t *testing.T) {
	benign := NewParseError(ClassForwardCompatible, "r.pkg.json", "unknown construct", nil)
	joined := errors.Join(errors.New("unrelated"), fmt.Errorf("wrap: %w", benign))

	found := FindCause(joined, func(err error) bool {
		var parseErr *ParseError
		return errors.As(err, &parseErr)
	})
	require.NotNil(t, found)
}

func TestInnermostMessage(t *testing.T) {
	root := errors.New("unexpected end of JSON input")
	wrapped := fmt.Errorf("record a.pkg.json: %w", fmt.Errorf("decode: %w", root))

	assert.Equal(t, "unexpected end of JSON input", InnermostMessage(wrapped))
}

func TestParseDownloadCounts(t *testing.T) {
	raw := []byte(`{"astro-tools": 15234, "core-lib": 99001}`)

	table, err := ParseDownloadCounts(raw, "download_counts.json")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	count, ok := table.Get("astro-tools")
	require.True(t, ok)
	assert.Equal(t, int64(15234), count)

	assert.Equal(t, []string{"astro-tools", "core-lib"}, table.Identifiers())
}

func TestParseDownloadCounts_InvalidIsFatal(t *testing.T) {
	_, err := ParseDownloadCounts([]byte(`[1,2,3]`), "download_counts.json")
	require.Error(t, err)
	assert.False(t, IsBenign(err))
}
