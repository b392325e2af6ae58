package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"
)

// Source reads a named dictionary resource in full.
type Source interface {
	ReadText(name string) (string, error)
}

// FSSource reads resources from a file system: os.DirFS, embed.FS or fstest.MapFS.
type FSSource struct {
	FS fs.FS
}

// ReadText returns the whole content of name
func (s FSSource) ReadText(name string) (string, error) {
	if s.FS == nil {
		return "", fmt.Errorf("no file system for %s: %w", name, fs.ErrNotExist)
	}
	data, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readWithRetry reads name, retrying transient failures.
// Missing resources are not retried.
func readWithRetry(ctx context.Context, src Source, name string, maxRetries int, delay time.Duration) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.Debugf("Retrying %s (attempt %d/%d)", name, attempt+1, maxRetries+1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * delay):
			}
		}
		text, err := src.ReadText(name)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	return "", fmt.Errorf("failed to read %s: %w", name, lastErr)
}
