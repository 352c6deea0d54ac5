package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/filesmanager/pkg/content"
)

// tempPrefix marks in-flight writes. Files with this prefix are never listed.
const tempPrefix = ".tmp-"

// FSContentStore implements ContentStore using the local filesystem.
//
// Each blob is a regular file named by its content id directly under the
// root directory, so FileRecord.LocalPath points at a real file:
//
//	/tmp/files_manager/550e8400-e29b-41d4-a716-446655440000
//	/tmp/files_manager/550e8400-e29b-41d4-a716-446655440000_500
//
// Thread Safety:
// Writes go to a temporary file in the same directory and are renamed into
// place, so readers see either the previous blob or the complete new one.
type FSContentStore struct {
	basePath string
}

// FSContentStoreConfig is decoded from the content.filesystem config section.
type FSContentStoreConfig struct {
	// Path is the root directory for blobs
	Path string `mapstructure:"path"`
}

// NewFSContentStore creates a new filesystem-based content store.
//
// The base directory is created with permissions 0755 if it doesn't exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Root directory for storing blobs
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Returns error if directory creation fails or context is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	// ========================================================================
	// Step 1: Check context before filesystem operation
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if basePath == "" {
		return nil, fmt.Errorf("content base path is required")
	}

	// ========================================================================
	// Step 2: Create the base directory if it doesn't exist
	// ========================================================================

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &FSContentStore{basePath: abs}, nil
}

// Location returns the absolute path of the blob file for id.
func (r *FSContentStore) Location(id string) string {
	return filepath.Join(r.basePath, id)
}

// WriteContent writes data to a temporary file and renames it over the
// destination.
func (r *FSContentStore) WriteContent(ctx context.Context, id string, data []byte) error {
	// ========================================================================
	// Step 1: Validate inputs
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateID(id); err != nil {
		return err
	}

	// ========================================================================
	// Step 2: Write to a temporary file in chunks
	// ========================================================================

	tmp, err := os.CreateTemp(r.basePath, tempPrefix+id+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	const chunkSize = 1 * 1024 * 1024 // 1MB chunks
	for offset := 0; offset < len(data); offset += chunkSize {
		// Check context before each chunk
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(offset+chunkSize, len(data))
		if _, err := tmp.Write(data[offset:end]); err != nil {
			return fmt.Errorf("failed to write content chunk: %w", err)
		}
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set content permissions: %w", err)
	}

	// ========================================================================
	// Step 3: Atomically move into place
	// ========================================================================

	if err := os.Rename(tmpName, r.Location(id)); err != nil {
		return fmt.Errorf("failed to commit content: %w", err)
	}
	committed = true
	return nil
}

// ReadContent opens the blob file. The caller must close the reader.
func (r *FSContentStore) ReadContent(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := content.ValidateID(id); err != nil {
		return nil, err
	}

	file, err := os.Open(r.Location(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to open content: %w", err)
	}
	return file, nil
}

func (r *FSContentStore) GetContentSize(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := content.ValidateID(id); err != nil {
		return 0, err
	}

	info, err := os.Stat(r.Location(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}
	return info.Size(), nil
}

func (r *FSContentStore) ContentExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := content.ValidateID(id); err != nil {
		return false, err
	}

	_, err := os.Stat(r.Location(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check content existence: %w", err)
}

// Delete removes the blob file. A missing file is not an error.
func (r *FSContentStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := content.ValidateID(id); err != nil {
		return err
	}

	if err := os.Remove(r.Location(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// ListAllContent lists regular files under the root, skipping in-flight
// temporary files.
func (r *FSContentStore) ListAllContent(ctx context.Context) ([]content.ContentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	infos := make([]content.ContentInfo, 0, len(entries))
	for i, entry := range entries {
		// Check context periodically (every 100 entries)
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		infos = append(infos, content.ContentInfo{
			ID:      entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return infos, nil
}

// Healthcheck verifies the root directory exists and is writable.
func (r *FSContentStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, err := os.CreateTemp(r.basePath, tempPrefix+"healthcheck-*")
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
