package common

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileReadOptions bounds a read. MaxSize 0 reads the whole file.
type FileReadOptions struct {
	MaxSize int64
}

// FileWriteOptions controls report and store output.
type FileWriteOptions struct {
	CreateDirs  bool
	Permissions fs.FileMode // 0644 when zero
}

// FileManager reads config files and writes reports and store directories.
type FileManager struct {
	logger zerolog.Logger
}

func NewFileManager(logger zerolog.Logger) *FileManager {
	return &FileManager{logger: logger.With().Str("component", "FileManager").Logger()}
}

// ReadFile reads a regular file. Missing files match ErrNotFound and files
// over opts.MaxSize match ErrTooLarge, including files that grew after stat.
func (fm *FileManager) ReadFile(path string, opts FileReadOptions) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, WrapErrorf(ErrNotFound, "open %s", path)
	}
	if err != nil {
		return nil, WrapErrorf(err, "open %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fm.logger.Warn().Err(cerr).Str("path", path).Msg("Close failed")
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, WrapErrorf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, NewValidationError("path", path, "is a directory")
	}
	if opts.MaxSize <= 0 {
		return io.ReadAll(f)
	}
	if info.Size() > opts.MaxSize {
		return nil, WrapErrorf(ErrTooLarge, "%s is %d bytes, limit %d", path, info.Size(), opts.MaxSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, opts.MaxSize+1))
	if err != nil {
		return nil, WrapErrorf(err, "read %s", path)
	}
	if int64(len(data)) > opts.MaxSize {
		return nil, WrapErrorf(ErrTooLarge, "%s grew past %d bytes", path, opts.MaxSize)
	}
	return data, nil
}

// EnsureDirectory creates path and its parents. An existing non-directory
// at path is a ValidationError.
func (fm *FileManager) EnsureDirectory(path string, perm fs.FileMode) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return NewValidationError("path", path, "exists but is not a directory")
	case !errors.Is(err, fs.ErrNotExist):
		return WrapErrorf(err, "stat %s", path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return WrapErrorf(err, "mkdir %s", path)
	}
	fm.logger.Debug().Str("path", path).Msg("Created directory")
	return nil
}

// WriteFile replaces path atomically: data goes to a temp file in the same
// directory which is then renamed over the target.
func (fm *FileManager) WriteFile(path string, data []byte, opts FileWriteOptions) error {
	dir := filepath.Dir(path)
	if opts.CreateDirs {
		if err := fm.EnsureDirectory(dir, 0755); err != nil {
			return err
		}
	}
	perm := opts.Permissions
	if perm == 0 {
		perm = 0644
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return WrapErrorf(err, "create temp file for %s", path)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return WrapErrorf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return WrapErrorf(err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return WrapErrorf(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return WrapErrorf(err, "rename %s to %s", tmpName, path)
	}
	committed = true

	fm.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("File written")
	return nil
}
