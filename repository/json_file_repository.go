package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"wordler/models"
	"wordler/service"
)

// JSONFileRepository stores the stats document as one JSON file. Saves go
// to a sibling temporary file that is renamed over the target, so readers
// only ever see a complete document.
type JSONFileRepository struct {
	path string
}

// NewJSONFileRepository creates a repository for the file at path
func NewJSONFileRepository(path string) *JSONFileRepository {
	return &JSONFileRepository{path: path}
}

// Path returns the file the repository writes to
func (r *JSONFileRepository) Path() string {
	return r.path
}

// Load reads the stats document
func (r *JSONFileRepository) Load(ctx context.Context) (*models.StatsDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, service.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}

	doc := models.NewStatsDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", service.ErrStoreCorruption, r.path, err)
	}
	if doc.Users == nil {
		return nil, fmt.Errorf("%w: %s: missing users", service.ErrStoreCorruption, r.path)
	}

	return doc, nil
}

// Save writes the stats document atomically
func (r *JSONFileRepository) Save(ctx context.Context, doc *models.StatsDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("stats document cannot be nil")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary stats file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temporary stats file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temporary stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary stats file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace stats file: %w", err)
	}

	return nil
}
