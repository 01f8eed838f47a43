package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/pkgsync-go/internal/domain"
	"go.uber.org/zap"
)

// HTTPTransferEngine downloads repository archives over HTTP. Targets in
// one batch are fetched concurrently; the completion callback fires once
// per target from the downloading goroutine.
type HTTPTransferEngine struct {
	client  *http.Client
	tempDir string
	logger  *zap.Logger
}

// NewHTTPTransferEngine creates a new HTTP transfer engine. An empty
// tempDir falls back to the system temp directory.
func NewHTTPTransferEngine(timeout time.Duration, tempDir string, logger *zap.Logger) *HTTPTransferEngine {
	return &HTTPTransferEngine{
		client:  &http.Client{Timeout: timeout},
		tempDir: tempDir,
		logger:  logger,
	}
}

// FetchAll downloads every target concurrently, firing onComplete once
// per target in completion order, and blocks until the batch is done.
// It returns an error if any target failed.
func (e *HTTPTransferEngine) FetchAll(ctx context.Context, targets []string, onComplete domain.TransferCallback) error {
	var wg sync.WaitGroup
	errs := make([]error, len(targets))

	for i, uri := range targets {
		wg.Add(1)
		go func(i int, uri string) {
			defer wg.Done()

			path, token, err := e.fetchOne(ctx, uri)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", uri, err)
			}
			onComplete(domain.TransferResult{
				URI:         uri,
				LocalPath:   path,
				ChangeToken: token,
				Err:         err,
			})
		}(i, uri)
	}

	wg.Wait()
	return errors.Join(errs...)
}

// fetchOne downloads a single archive into a temporary file and returns
// its path together with the change-token the server reported.
func (e *HTTPTransferEngine) fetchOne(ctx context.Context, uri string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download failed: unexpected status %s", resp.Status)
	}

	dir := e.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("pkgsync-%s.archive", uuid.New().String()))

	file, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write archive: %w", err)
	}
	if closeErr != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to close archive file: %w", closeErr)
	}

	token := resp.Header.Get("ETag")
	e.logger.Debug("Archive downloaded",
		zap.String("uri", uri),
		zap.String("path", path),
		zap.Int64("bytes", written),
		zap.String("etag", token))

	return path, token, nil
}

// HTTPTokenProbe retrieves a repository's current change-token with a
// HEAD request; no body transfer occurs.
type HTTPTokenProbe struct {
	client *http.Client
}

// NewHTTPTokenProbe creates a new HTTP token probe
func NewHTTPTokenProbe(timeout time.Duration) *HTTPTokenProbe {
	return &HTTPTokenProbe{client: &http.Client{Timeout: timeout}}
}

// CurrentToken returns the ETag the server reports for the URI
func (p *HTTPTokenProbe) CurrentToken(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("probe failed: unexpected status %s", resp.Status)
	}

	return resp.Header.Get("ETag"), nil
}
