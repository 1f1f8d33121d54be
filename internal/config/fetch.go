package config

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/probectl/internal/logging"
)

const fetchTimeout = 30 * time.Second

// Fetch downloads a configuration document from a bootstrap URL, validates
// it, and persists it to path. Used instead of the session loop when the
// agent is invoked with the fetch flag.
func Fetch(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("config fetch failed (%s): %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("config fetch failed (%s): %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("config fetch failed (%s): status %d", url, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("config fetch failed (%s): %w", url, err)
	}

	var doc Document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config fetch parse failed (%s): %w", url, err)
	}
	if err := Validate(doc); err != nil {
		return fmt.Errorf("config fetch rejected (%s): %w", url, err)
	}

	if err := Save(path, doc); err != nil {
		return err
	}
	logging.Infof("config.Fetch persisted document url=%q path=%q", url, path)
	return nil
}
