package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/config"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/aleister1102/jssecretscanner/internal/urlhandler"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const (
	findingsFilePrefix = "findings_"
	findingsFileExt    = ".parquet"
	readBatchSize      = 100
)

// FindingsStore archives the findings of each scan as one Parquet file per
// scan under <base>/<host>/.
type FindingsStore struct {
	config      config.StorageConfig
	compression parquet.WriterOption
	fileManager *common.FileManager
	logger      zerolog.Logger
}

// NewFindingsStore creates a store rooted at cfg.ParquetBasePath.
func NewFindingsStore(cfg config.StorageConfig, logger zerolog.Logger) (*FindingsStore, error) {
	moduleLogger := logger.With().Str("module", "FindingsStore").Logger()
	if cfg.ParquetBasePath == "" {
		return nil, common.NewValidationError("parquet_base_path", cfg.ParquetBasePath, "ParquetBasePath is not configured for findings")
	}

	compression, err := compressionOption(cfg.CompressionCodec)
	if err != nil {
		return nil, err
	}

	return &FindingsStore{
		config:      cfg,
		compression: compression,
		fileManager: common.NewFileManager(moduleLogger),
		logger:      moduleLogger,
	}, nil
}

func compressionOption(codec string) (parquet.WriterOption, error) {
	switch strings.ToLower(codec) {
	case "", "zstd":
		return parquet.Compression(&parquet.Zstd), nil
	case "snappy":
		return parquet.Compression(&parquet.Snappy), nil
	case "gzip":
		return parquet.Compression(&parquet.Gzip), nil
	case "none":
		return parquet.Compression(&parquet.Uncompressed), nil
	default:
		return nil, common.NewValidationError("compression_codec", codec, "unsupported compression codec")
	}
}

// HostDir is the directory holding the archives of origin.
func (fs *FindingsStore) HostDir(origin models.Origin) string {
	return filepath.Join(fs.config.ParquetBasePath, urlhandler.SanitizeFilename(origin.Host))
}

// StoreFindings writes the findings of result and returns the file path.
// A result without findings writes nothing and returns "".
func (fs *FindingsStore) StoreFindings(ctx context.Context, result *models.ScanResult) (string, error) {
	if result == nil {
		return "", common.NewValidationError("result", nil, "no scan result to store")
	}
	records := ToFindingRecords(result)
	if len(records) == 0 {
		return "", nil
	}
	if err := common.Interrupted(ctx, fs.logger, "store findings"); err != nil {
		return "", err
	}

	dir := fs.HostDir(result.Origin)
	if err := fs.fileManager.EnsureDirectory(dir, 0755); err != nil {
		return "", common.WrapError(err, "failed to create findings directory: "+dir)
	}
	filePath := filepath.Join(dir, fmt.Sprintf("%s%d%s", findingsFilePrefix, result.StartedAt.UnixMilli(), findingsFileExt))

	if err := fs.writeParquetFile(filePath, records); err != nil {
		return "", err
	}

	fs.logger.Info().
		Str("file_path", filePath).
		Int("records_written", len(records)).
		Msg("Successfully wrote findings to Parquet file")
	return filePath, nil
}

func (fs *FindingsStore) writeParquetFile(filePath string, records []FindingRecord) error {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return common.WrapError(err, "failed to create findings parquet file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[FindingRecord](file, fs.compression)
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return common.WrapError(err, "failed to write findings to parquet file")
	}
	if err := writer.Close(); err != nil {
		return common.WrapError(err, "failed to close findings parquet writer")
	}
	return nil
}

// Load reads every record of one archive file.
func (fs *FindingsStore) Load(ctx context.Context, filePath string) ([]FindingRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.WrapError(common.ErrNotFound, "findings file "+filePath)
		}
		return nil, common.WrapError(err, "failed to open findings parquet file for reading: "+filePath)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[FindingRecord](file)
	defer reader.Close()

	records := make([]FindingRecord, 0, reader.NumRows())
	batch := make([]FindingRecord, readBatchSize)
	for {
		if err := common.Interrupted(ctx, fs.logger, "load findings"); err != nil {
			return nil, err
		}

		n, err := reader.Read(batch)
		records = append(records, batch[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, common.WrapError(err, "failed to read findings from parquet file")
		}
	}

	fs.logger.Debug().Int("records_read", len(records)).Str("file_path", filePath).Msg("Loaded findings")
	return records, nil
}

// Archives lists the archive files of origin, oldest first.
func (fs *FindingsStore) Archives(origin models.Origin) ([]string, error) {
	dir := fs.HostDir(origin)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, common.WrapError(err, "failed to list findings directory: "+dir)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, findingsFilePrefix) || !strings.HasSuffix(name, findingsFileExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Slice(paths, func(i, j int) bool {
		return ArchiveTimestamp(paths[i]) < ArchiveTimestamp(paths[j])
	})
	return paths, nil
}

// ArchiveTimestamp returns the scan start, in Unix milliseconds, encoded in an
// archive file name, or 0 when the name carries none.
func ArchiveTimestamp(path string) int64 {
	stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), findingsFilePrefix), findingsFileExt)
	millis, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return 0
	}
	return millis
}
