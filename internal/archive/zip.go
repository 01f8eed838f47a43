package archive

import (
	"archive/zip"
	"fmt"
)

// zipWalker traverses a zip archive. Unlike the tape archive, total
// uncompressed size and entry count are known up front; they are used
// only for progress percentage calculation.
type zipWalker struct {
	path     string
	progress ProgressFunc
}

func newZipWalker(path string, progress ProgressFunc) *zipWalker {
	return &zipWalker{path: path, progress: progress}
}

func (w *zipWalker) Walk(fn WalkFunc) error {
	r, err := zip.OpenReader(w.path)
	if err != nil {
		return fmt.Errorf("failed to open zip archive %s: %w", w.path, err)
	}
	defer r.Close()

	var totalBytes int64
	for _, f := range r.File {
		totalBytes += int64(f.UncompressedSize64)
	}

	emitter := newProgressEmitter(w.progress)
	var consumed int64

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
		}

		err = fn(Entry{Name: f.Name, Size: int64(f.UncompressedSize64), Reader: rc})
		rc.Close()
		if err != nil {
			return err
		}

		consumed += int64(f.UncompressedSize64)
		emitter.emit(consumed, totalBytes)
	}

	return nil
}
