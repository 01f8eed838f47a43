package archive

import (
	"archive/tar"
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEntry struct {
	name    string
	content string
}

func buildTarGz(t *testing.T, entries []testEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, entry := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     entry.name,
			Mode:     0644,
			Size:     int64(len(entry.content)),
			Typeflag: tar.TypeReg,
		}))
		_, err = tw.Write([]byte(entry.content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return path
}

func buildZip(t *testing.T, entries []testEntry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entry.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return path
}

func collectEntries(t *testing.T, w Walker) map[string]string {
	t.Helper()

	collected := make(map[string]string)
	err := w.Walk(func(entry Entry) error {
		content, err := io.ReadAll(entry.Reader)
		if err != nil {
			return err
		}
		collected[entry.Name] = string(content)
		return nil
	})
	require.NoError(t, err)
	return collected
}

func TestDetect_TarGz(t *testing.T) {
	path := buildTarGz(t, []testEntry{{"a.txt", "hello"}})

	kind, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, KindTarGz, kind)
}

func TestDetect_Zip(t *testing.T) {
	path := buildZip(t, []testEntry{{"a.txt", "hello"}})

	kind, err := Detect(path)
	require.NoError(t, err)
	assert.Equal(t, KindZip, kind)
}

func TestDetect_IgnoresFilename(t *testing.T) {
	// A zip payload under a tar.gz name must still detect as zip
	zipPath := buildZip(t, []testEntry{{"a.txt", "hello"}})
	misnamed := filepath.Join(t.TempDir(), "archive.tar.gz")
	content, err := os.ReadFile(zipPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(misnamed, content, 0644))

	kind, err := Detect(misnamed)
	require.NoError(t, err)
	assert.Equal(t, KindZip, kind)
}

func TestDetect_UnsupportedNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-archive")
	require.NoError(t, os.WriteFile(path, []byte("plain text file"), 0644))

	_, err := Detect(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestWalk_FormatTransparency(t *testing.T) {
	entries := []testEntry{
		{"repo/a.pkg.json", `{"identifier": "a"}`},
		{"repo/b.pkg.json", `{"identifier": "b"}`},
		{"repo/download_counts.json", `{"a": 1}`},
	}

	tarPath := buildTarGz(t, entries)
	zipPath := buildZip(t, entries)

	fromTar := collectEntries(t, newTarGzWalker(tarPath, zap.NewNop(), nil))
	fromZip := collectEntries(t, newZipWalker(zipPath, nil))

	assert.Equal(t, fromTar, fromZip,
		"the same records must load identically from both container formats")
}

func TestTarWalk_OversizedEntryIsolation(t *testing.T) {
	entries := []testEntry{
		{"oversized.pkg.json", "this content exceeds the cap"},
		{"a.pkg.json", `{"id": "a"}`},
		{"b.pkg.json", `{"id": "b"}`},
	}
	path := buildTarGz(t, entries)

	w := newTarGzWalker(path, zap.NewNop(), nil)
	w.maxEntrySize = 16

	collected := collectEntries(t, w)
	assert.Len(t, collected, 2, "only the oversized entry is skipped")
	assert.NotContains(t, collected, "oversized.pkg.json")
	assert.Contains(t, collected, "a.pkg.json")
	assert.Contains(t, collected, "b.pkg.json")
}

func TestWalk_ProgressStrictlyIncreases(t *testing.T) {
	var entries []testEntry
	for i := 0; i < 40; i++ {
		entries = append(entries, testEntry{
			name:    filepath.Join("repo", string(rune('a'+i%26))+".pkg.json"),
			content: `{"identifier": "filler-content-to-move-the-percentage"}`,
		})
	}

	walkers := map[string]func(progress ProgressFunc) Walker{
		"tar.gz": func(progress ProgressFunc) Walker {
			return newTarGzWalker(buildTarGz(t, entries), zap.NewNop(), progress)
		},
		"zip": func(progress ProgressFunc) Walker {
			return newZipWalker(buildZip(t, entries), progress)
		},
	}

	for name, build := range walkers {
		t.Run(name, func(t *testing.T) {
			var percents []int
			w := build(func(percent int) { percents = append(percents, percent) })

			err := w.Walk(func(entry Entry) error {
				_, err := io.Copy(io.Discard, entry.Reader)
				return err
			})
			require.NoError(t, err)
			require.NotEmpty(t, percents)

			for i := 1; i < len(percents); i++ {
				assert.Greater(t, percents[i], percents[i-1],
					"emitted progress must strictly increase")
			}
		})
	}
}

func TestWalk_CallbackErrorStopsTraversal(t *testing.T) {
	path := buildTarGz(t, []testEntry{
		{"a.pkg.json", "a"},
		{"b.pkg.json", "b"},
	})

	seen := 0
	err := newTarGzWalker(path, zap.NewNop(), nil).Walk(func(entry Entry) error {
		seen++
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, seen)
}

func TestZipWalk_SkipsDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("repo/")
	require.NoError(t, err)
	w, err := zw.Create("repo/a.pkg.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	collected := collectEntries(t, newZipWalker(path, nil))
	assert.Len(t, collected, 1)
	assert.Contains(t, collected, "repo/a.pkg.json")
}
