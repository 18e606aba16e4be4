package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage keeps files under <base>/<user id>/ as <file id>.data with a
// <file id>.json metadata sidecar.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Upload stores r and returns its metadata.
func (s *LocalStorage) Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error) {
	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	info := &FileInfo{
		ID:          uuid.New(),
		Name:        sanitizeFilename(filename),
		ContentType: contentType,
		CreatedAt:   s.now().UTC(),
	}

	dataPath := filepath.Join(dir, info.ID.String()+".data")
	f, err := os.Create(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dataPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	info.Size = size

	meta, err := json.Marshal(info)
	if err != nil {
		_ = os.Remove(dataPath)
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, info.ID.String()+".json"), meta, 0o644); err != nil {
		_ = os.Remove(dataPath)
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	return info, nil
}

// GetReader opens a stored file. The caller closes it.
func (s *LocalStorage) GetReader(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.userDir(userID), fileID.String()+".data"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// GetInfo returns metadata for a file.
func (s *LocalStorage) GetInfo(ctx context.Context, userID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.userDir(userID), fileID.String()+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

// List returns the user's files, newest first.
func (s *LocalStorage) List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error) {
	entries, err := os.ReadDir(s.userDir(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries)/2)
	for _, entry := range entries {
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if entry.IsDir() || !ok {
			continue
		}
		fileID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		info, err := s.GetInfo(ctx, userID, fileID)
		if err != nil {
			return nil, err
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Delete removes a file and its metadata.
func (s *LocalStorage) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	if _, err := s.GetInfo(ctx, userID, fileID); err != nil {
		return err
	}
	base := filepath.Join(s.userDir(userID), fileID.String())
	for _, path := range []string{base + ".data", base + ".json"} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}
	return nil
}

func (s *LocalStorage) userDir(userID uuid.UUID) string {
	return filepath.Join(s.basePath, userID.String())
}

var unsafeFilename = strings.NewReplacer(
	"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

func sanitizeFilename(name string) string {
	return unsafeFilename.Replace(name)
}
