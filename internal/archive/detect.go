package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Kind is a detected container format
type Kind string

const (
	// KindTarGz is a gzip-compressed tape archive
	KindTarGz Kind = "tar.gz"

	// KindZip is a zip archive
	KindZip Kind = "zip"
)

var (
	gzipMagic     = []byte{0x1f, 0x8b}
	zipMagic      = []byte{'P', 'K', 0x03, 0x04}
	zipEmptyMagic = []byte{'P', 'K', 0x05, 0x06}
)

// Detect inspects the file's leading bytes to determine its container
// kind. Remote filenames are not trusted, so detection is content-based
// only. A file matching neither signature is an unsupported-container
// error naming the path.
func Detect(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	header := make([]byte, 4)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read archive header: %w", err)
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return KindTarGz, nil
	case bytes.HasPrefix(header, zipMagic), bytes.HasPrefix(header, zipEmptyMagic):
		return KindZip, nil
	default:
		return "", fmt.Errorf("unsupported container format: %s", path)
	}
}
