package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/ports"
)

const ext = ".json"

// Store implements ports.AssertionStore on the local filesystem.
// Each assertion is one codec-encoded file in BasePath.
type Store struct {
	BasePath string
	codec    ports.AssertionCodec
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".policydesk/assertions".
func New(basePath string, codec ports.AssertionCodec) *Store {
	if basePath == "" {
		basePath = filepath.Join(".policydesk", "assertions")
	}
	return &Store{BasePath: basePath, codec: codec}
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid assertion id %q", id)
	}
	return filepath.Join(s.BasePath, id+ext), nil
}

// Save writes the assertion atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, id string, assertion domain.Assertion) error {
	destPath, err := s.path(id)
	if err != nil {
		return err
	}
	data, err := s.codec.Encode(assertion)
	if err != nil {
		return fmt.Errorf("failed to encode assertion: %w", err)
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure store directory: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+id+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing assertion file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads and decodes the assertion stored under id.
func (s *Store) Load(ctx context.Context, id string) (domain.Assertion, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrAssertionNotFound
		}
		return nil, fmt.Errorf("failed to read assertion file: %w", err)
	}
	return s.codec.Decode(data)
}

// Delete removes the assertion file. Missing ids are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete assertion file: %w", err)
	}
	return nil
}

// List returns the stored ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list assertions: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}
