package datastore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/aleister1102/jssecretscanner/internal/datastore"
	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryDB(t *testing.T) *datastore.HistoryDB {
	t.Helper()
	db, err := datastore.NewHistoryDB(filepath.Join(t.TempDir(), "state", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestHistoryDB_CompletedScan(t *testing.T) {
	db := newHistoryDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	result := sampleResult(started)

	id, err := db.StartScan(ctx, result.Origin, started)
	require.NoError(t, err)
	require.NotZero(t, id)

	entries, err := db.Recent(ctx, "acme.io:8443", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, datastore.StatusStarted, entries[0].Status)
	assert.False(t, entries[0].ScanEndTime.Valid)

	require.NoError(t, db.CompleteScan(ctx, id, result, nil))

	entries, err = db.Recent(ctx, "acme.io:8443", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, "https://acme.io:8443", entry.Target)
	assert.Equal(t, datastore.StatusCompleted, entry.Status)
	assert.True(t, entry.ScanStartTime.Equal(started))
	assert.True(t, entry.ScanEndTime.Valid)
	assert.Equal(t, 2, entry.ResourcesAttempted)
	assert.Equal(t, 2, entry.TotalFindings)
	assert.Equal(t, 1, entry.HighRiskCount)
	assert.Equal(t, int64(2000), entry.DurationMs)
	assert.False(t, entry.ErrorKind.Valid)

	last, err := db.LastCompleted(ctx, "acme.io:8443")
	require.NoError(t, err)
	assert.Equal(t, id, last.ID)
}

func TestHistoryDB_FailedAndCancelled(t *testing.T) {
	db := newHistoryDB(t)
	ctx := context.Background()
	origin := models.Origin{Scheme: "https", Host: "shop.example"}
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantKind   string
	}{
		{
			name:       "fatal fetch",
			err:        common.NewScanError(common.KindFatalFetch, "entry document unavailable", errors.New("connection refused")),
			wantStatus: datastore.StatusFailed,
			wantKind:   string(common.KindFatalFetch),
		},
		{
			name:       "cancelled",
			err:        common.NewScanError(common.KindCancelled, "scan cancelled", context.Canceled),
			wantStatus: datastore.StatusCancelled,
			wantKind:   string(common.KindCancelled),
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := db.StartScan(ctx, origin, base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
			require.NoError(t, db.CompleteScan(ctx, id, nil, tt.err))

			entries, err := db.Recent(ctx, origin.Host, 1)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, id, entries[0].ID)
			assert.Equal(t, tt.wantStatus, entries[0].Status)
			assert.Equal(t, tt.wantKind, entries[0].ErrorKind.String)
			assert.Contains(t, entries[0].ErrorMessage.String, tt.wantKind)
		})
	}

	_, err := db.LastCompleted(ctx, origin.Host)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestHistoryDB_RecentOrderAndLimit(t *testing.T) {
	db := newHistoryDB(t)
	ctx := context.Background()
	origin := models.Origin{Scheme: "https", Host: "acme.io"}
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := db.StartScan(ctx, origin, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := db.StartScan(ctx, models.Origin{Scheme: "https", Host: "other.io"}, base)
	require.NoError(t, err)

	entries, err := db.Recent(ctx, "acme.io", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[3], entries[0].ID)
	assert.Equal(t, ids[2], entries[1].ID)

	entries, err = db.Recent(ctx, "acme.io", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryDB_CompleteUnknownID(t *testing.T) {
	db := newHistoryDB(t)
	err := db.CompleteScan(context.Background(), 999, nil, errors.New("boom"))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNewHistoryDB_EmptyPath(t *testing.T) {
	_, err := datastore.NewHistoryDB("", zerolog.Nop())
	var validationErr *common.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
