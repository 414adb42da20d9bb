// Package storage provides the file stores that hold file-backed CMS content
// (template files, module images) on local disk or S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/siocms/backend/internal/infrastructure/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrFileNotFound is returned by GetFile when no file exists at the location
var ErrFileNotFound = errors.New("file not found")

// File is a text file addressed by folder, name and extension
type File struct {
	Name         string
	Extension    string
	Folder       string
	Content      string
	LastModified time.Time
}

// FullName returns the file name with its extension
func (f File) FullName() string {
	return f.Name + f.Extension
}

// FileStore reads and writes file-backed content
type FileStore interface {
	// GetFile returns ErrFileNotFound when the file does not exist.
	GetFile(ctx context.Context, name, extension, folder string) (*File, error)
	// SaveFile creates or replaces the file, creating its folder as needed.
	SaveFile(ctx context.Context, file File) error
	// DeleteFile removes fileName (name plus extension) from folder. A missing file is not an error.
	DeleteFile(ctx context.Context, fileName, folder string) error
}

// New creates the file store selected by cfg.Driver
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (FileStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", "local":
		baseDir := cfg.BaseDir
		if baseDir == "" {
			baseDir = "."
		}
		logger.Info("using local file store", zap.String("base_dir", baseDir))
		return NewLocalFileStore(afero.NewBasePathFs(afero.NewOsFs(), baseDir), WithLocalLogger(logger)), nil
	case "s3":
		store, err := NewS3FileStore(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// objectPath joins folder and fileName into a slash separated relative path.
// Names may not contain separators and no segment may climb out of the root.
func objectPath(folder, fileName string) (string, error) {
	if fileName == "" || strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == ".." {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	folder = strings.ReplaceAll(folder, `\`, "/")
	for _, seg := range strings.Split(folder, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid folder %q", folder)
		}
	}
	return strings.TrimPrefix(path.Join("/", folder, fileName), "/"), nil
}
