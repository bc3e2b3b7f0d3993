package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Scan statuses stored in scan_history.
const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// ScanHistoryEntry is one row of scan_history.
type ScanHistoryEntry struct {
	ID                 int64
	Target             string
	Host               string
	ScanStartTime      time.Time
	ScanEndTime        sql.NullTime
	Status             string
	ErrorKind          sql.NullString
	ErrorMessage       sql.NullString
	ResourcesAttempted int
	ResourcesSucceeded int
	TotalFindings      int
	HighRiskCount      int
	DurationMs         int64
}

// HistoryDB records scans in a SQLite database.
type HistoryDB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewHistoryDB opens (or creates) the database at dataSourceName and ensures
// the schema.
func NewHistoryDB(dataSourceName string, logger zerolog.Logger) (*HistoryDB, error) {
	moduleLogger := logger.With().Str("module", "HistoryDB").Logger()
	if dataSourceName == "" {
		return nil, common.NewValidationError("sqlite_path", dataSourceName, "SQLitePath is not configured")
	}

	dbDir := filepath.Dir(dataSourceName)
	if err := common.NewFileManager(moduleLogger).EnsureDirectory(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// SQLite allows a single writer.
	dbInstance.SetMaxOpenConns(1)

	h := &HistoryDB{db: dbInstance, logger: moduleLogger}
	if err := h.InitSchema(context.Background()); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	moduleLogger.Debug().Str("path", dataSourceName).Msg("History database initialized")
	return h, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}

// InitSchema creates the scan_history table if it doesn't already exist.
func (h *HistoryDB) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		host TEXT NOT NULL,
		scan_start_time DATETIME NOT NULL,
		scan_end_time DATETIME,
		status TEXT NOT NULL,
		error_kind TEXT,
		error_message TEXT,
		resources_attempted INTEGER DEFAULT 0,
		resources_succeeded INTEGER DEFAULT 0,
		total_findings INTEGER DEFAULT 0,
		high_risk_count INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_scan_history_host ON scan_history (host, scan_start_time);
	`
	if _, err := h.db.ExecContext(ctx, query); err != nil {
		h.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// StartScan inserts a STARTED row and returns its ID.
func (h *HistoryDB) StartScan(ctx context.Context, origin models.Origin, startedAt time.Time) (int64, error) {
	query := `INSERT INTO scan_history (target, host, scan_start_time, status) VALUES (?, ?, ?, ?)`
	result, err := h.db.ExecContext(ctx, query, origin.String(), origin.Host, startedAt.UTC(), StatusStarted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	h.logger.Debug().Int64("db_id", id).Str("target", origin.String()).Msg("Recorded scan start")
	return id, nil
}

// CompleteScan closes the row id. A nil scanErr with a result marks it
// COMPLETED with the result's counts; otherwise FAILED or CANCELLED.
func (h *HistoryDB) CompleteScan(ctx context.Context, id int64, result *models.ScanResult, scanErr error) error {
	endTime := time.Now().UTC()
	status := StatusCompleted
	var errorKind, errorMessage sql.NullString
	var attempted, succeeded, findings, highRisk int
	var durationMs int64

	if scanErr != nil || result == nil {
		status = StatusFailed
		kind := common.ScanErrorKindOf(scanErr)
		if kind == common.KindCancelled {
			status = StatusCancelled
		}
		errorKind = sql.NullString{String: string(kind), Valid: kind != ""}
		if scanErr != nil {
			errorMessage = sql.NullString{String: scanErr.Error(), Valid: true}
		}
	} else {
		endTime = result.FinishedAt.UTC()
		attempted = result.ResourcesAttempted
		succeeded = result.ResourcesSucceeded
		findings = result.Summary.TotalFindings
		highRisk = result.Summary.HighRiskCount
		durationMs = result.ExecutionTime.Milliseconds()
	}

	query := `UPDATE scan_history SET scan_end_time = ?, status = ?, error_kind = ?, error_message = ?,
		resources_attempted = ?, resources_succeeded = ?, total_findings = ?, high_risk_count = ?, duration_ms = ?
		WHERE id = ?`
	res, err := h.db.ExecContext(ctx, query, endTime, status, errorKind, errorMessage,
		attempted, succeeded, findings, highRisk, durationMs, id)
	if err != nil {
		return fmt.Errorf("failed to update scan completion for ID %d: %w", id, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return common.WrapErrorf(common.ErrNotFound, "scan history ID %d", id)
	}
	h.logger.Debug().Int64("db_id", id).Str("status", status).Msg("Recorded scan completion")
	return nil
}

// Recent returns up to n scans of host, newest first.
func (h *HistoryDB) Recent(ctx context.Context, host string, n int) ([]ScanHistoryEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	query := `SELECT id, target, host, scan_start_time, scan_end_time, status, error_kind, error_message,
		resources_attempted, resources_succeeded, total_findings, high_risk_count, duration_ms
		FROM scan_history WHERE host = ? ORDER BY scan_start_time DESC, id DESC LIMIT ?`
	rows, err := h.db.QueryContext(ctx, query, host, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var entries []ScanHistoryEntry
	for rows.Next() {
		var e ScanHistoryEntry
		if err := rows.Scan(&e.ID, &e.Target, &e.Host, &e.ScanStartTime, &e.ScanEndTime, &e.Status,
			&e.ErrorKind, &e.ErrorMessage, &e.ResourcesAttempted, &e.ResourcesSucceeded,
			&e.TotalFindings, &e.HighRiskCount, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastCompleted returns the most recent COMPLETED scan of host, or
// common.ErrNotFound.
func (h *HistoryDB) LastCompleted(ctx context.Context, host string) (*ScanHistoryEntry, error) {
	query := `SELECT id, scan_start_time, total_findings FROM scan_history
		WHERE host = ? AND status = ? ORDER BY scan_start_time DESC, id DESC LIMIT 1`
	e := ScanHistoryEntry{Host: host, Status: StatusCompleted}
	err := h.db.QueryRowContext(ctx, query, host, StatusCompleted).Scan(&e.ID, &e.ScanStartTime, &e.TotalFindings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query last completed scan: %w", err)
	}
	return &e, nil
}
