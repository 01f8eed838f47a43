package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// tarGzWalker traverses a gzip-compressed tape archive. Progress is
// measured in compressed bytes consumed against the file size, which the
// gzip layer pulls through as entries are read.
type tarGzWalker struct {
	path     string
	logger   *zap.Logger
	progress ProgressFunc

	// maxEntrySize bounds a single entry's declared size. Entries above
	// it are skipped with an error log; the rest of the archive still
	// loads.
	maxEntrySize int64
}

func newTarGzWalker(path string, logger *zap.Logger, progress ProgressFunc) *tarGzWalker {
	return &tarGzWalker{
		path:         path,
		logger:       logger,
		progress:     progress,
		maxEntrySize: math.MaxInt,
	}
}

func (w *tarGzWalker) Walk(fn WalkFunc) error {
	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", w.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive %s: %w", w.path, err)
	}
	totalBytes := info.Size()

	counting := &countingReader{r: f}
	gz, err := gzip.NewReader(counting)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream in %s: %w", w.path, err)
	}
	defer gz.Close()

	emitter := newProgressEmitter(w.progress)
	tr := tar.NewReader(gz)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry in %s: %w", w.path, err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		if header.Size < 0 || header.Size > w.maxEntrySize {
			w.logger.Error("Entry size not addressable, skipping",
				zap.String("entry", header.Name),
				zap.Int64("size", header.Size))
			continue
		}

		if err := fn(Entry{Name: header.Name, Size: header.Size, Reader: tr}); err != nil {
			return err
		}

		emitter.emit(counting.n, totalBytes)
	}

	return nil
}
