package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var _ FileStore = (*LocalFileStore)(nil)

// LocalFileStore keeps files on an afero filesystem, normally a base-path view of local disk
type LocalFileStore struct {
	fs     afero.Fs
	logger *zap.Logger
}

// LocalFileStoreOption is a functional option for configuring LocalFileStore
type LocalFileStoreOption func(*LocalFileStore)

// WithLocalLogger sets a custom logger for LocalFileStore
func WithLocalLogger(logger *zap.Logger) LocalFileStoreOption {
	return func(s *LocalFileStore) {
		s.logger = logger
	}
}

// NewLocalFileStore creates a file store over fsys
func NewLocalFileStore(fsys afero.Fs, opts ...LocalFileStoreOption) *LocalFileStore {
	s := &LocalFileStore{fs: fsys, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetFile reads a file
func (s *LocalFileStore) GetFile(_ context.Context, name, extension, folder string) (*File, error) {
	p, err := objectPath(folder, name+extension)
	if err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, ErrFileNotFound
	}

	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return &File{
		Name:         name,
		Extension:    extension,
		Folder:       folder,
		Content:      string(data),
		LastModified: info.ModTime(),
	}, nil
}

// SaveFile writes a file, replacing any previous content
func (s *LocalFileStore) SaveFile(_ context.Context, file File) error {
	p, err := objectPath(file.Folder, file.FullName())
	if err != nil {
		return err
	}
	if dir := path.Dir(p); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create folder: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, p, []byte(file.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	s.logger.Debug("file saved", zap.String("path", p), zap.Int("bytes", len(file.Content)))
	return nil
}

// DeleteFile removes a file
func (s *LocalFileStore) DeleteFile(_ context.Context, fileName, folder string) error {
	p, err := objectPath(folder, fileName)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	s.logger.Debug("file deleted", zap.String("path", p))
	return nil
}
