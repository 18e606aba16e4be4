// Package storage keeps per-user report files: import error files and exports.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown file id.
var ErrNotFound = errors.New("file not found")

// FileInfo describes a stored file.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage stores files per user.
type Storage interface {
	Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, r io.Reader) (*FileInfo, error)
	GetReader(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, error)
	GetInfo(ctx context.Context, userID, fileID uuid.UUID) (*FileInfo, error)
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)
	Delete(ctx context.Context, userID, fileID uuid.UUID) error
}
