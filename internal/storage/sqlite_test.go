package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStorage opens a migrated store in a temporary directory.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSnapshot(createdAt time.Time) *model.Snapshot {
	return &model.Snapshot{
		CreatedAt: createdAt,
		Sources:   []string{"a.json", "b.txt"},
		Note:      "month end",
		Records: []model.Record{
			{
				Name:          "贵州茅台",
				Code:          "600519.SH",
				Quantity:      model.Float(100),
				MarketValue:   model.Float(170000),
				CostPrice:     model.Float(1500),
				CurrentPrice:  model.Float(1700),
				PositionRatio: model.Float(0.1234),
				ProfitRatio:   model.Float(-0.035),
				ProfitAmount:  model.Float(20000),
				SourceType:    model.ChannelHuabao,
			},
			{Name: "基金A", Code: "000001", MarketValue: model.Float(1234.5), SourceType: model.ChannelFundE},
			{Name: "零市值", MarketValue: model.Float(0), SourceType: model.ChannelHaitong},
		},
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)

	require.NoError(t, store.Migrate(context.Background()))
	version, err := store.schemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(" ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSaveAndGetSnapshot(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.FixedZone("CST", 8*3600))

	snap := testSnapshot(created)
	require.NoError(t, store.SaveSnapshot(ctx, snap))
	require.NotEmpty(t, snap.ID)

	got, err := store.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)

	assert.Equal(t, snap.ID, got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "month end", got.Note)
	assert.Equal(t, []string{"a.json", "b.txt"}, got.Sources)
	assert.Equal(t, snap.Records, got.Records)
	assert.Nil(t, got.Records[1].Quantity, "absent fields stay absent")
	require.NotNil(t, got.Records[2].MarketValue, "zero is a value")
	assert.Zero(t, *got.Records[2].MarketValue)
}

func TestSaveSnapshot_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveSnapshot(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.SaveSnapshot(ctx, &model.Snapshot{}), ErrInvalidSnapshot)
	assert.ErrorIs(t, store.SaveSnapshot(ctx, &model.Snapshot{Records: []model.Record{{}}}), ErrInvalidRecord)
}

func TestSaveSnapshot_Duplicate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	snap := testSnapshot(time.Now())
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	again := testSnapshot(time.Now())
	again.ID = snap.ID
	assert.ErrorIs(t, store.SaveSnapshot(ctx, again), common.ErrDuplicateEntry)
}

func TestGetSnapshot_NotFound(t *testing.T) {
	store := createTestStorage(t)

	_, err := store.GetSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.LatestSnapshot(context.Background())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLatestAndList(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := testSnapshot(base)
	newer := testSnapshot(base.Add(48 * time.Hour))
	newer.Records = newer.Records[:1]
	newer.Note = ""
	require.NoError(t, store.SaveSnapshot(ctx, newer))
	require.NoError(t, store.SaveSnapshot(ctx, older))

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	infos, err := store.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, newer.ID, infos[0].ID)
	assert.Equal(t, 1, infos[0].RecordCount)
	assert.InDelta(t, 170000.0, infos[0].TotalValue, 1e-6)
	assert.Equal(t, older.ID, infos[1].ID)
	assert.Equal(t, 3, infos[1].RecordCount)
	assert.InDelta(t, 171234.5, infos[1].TotalValue, 1e-6)
	assert.Equal(t, "month end", infos[1].Note)
}

func TestResolveSnapshot(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first := testSnapshot(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	first.ID = "abc-111"
	second := testSnapshot(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	second.ID = "abd-222"
	require.NoError(t, store.SaveSnapshot(ctx, first))
	require.NoError(t, store.SaveSnapshot(ctx, second))

	tests := []struct {
		ref     string
		wantID  string
		wantErr bool
	}{
		{ref: LatestRef, wantID: "abd-222"},
		{ref: "abc-111", wantID: "abc-111"},
		{ref: "abc", wantID: "abc-111"},
		{ref: "ab", wantErr: true},
		{ref: "zzz", wantErr: true},
		{ref: "a%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			snap, err := store.ResolveSnapshot(ctx, tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, snap.ID)
		})
	}
}

func TestDeleteSnapshot(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	snap := testSnapshot(time.Now())
	require.NoError(t, store.SaveSnapshot(ctx, snap))
	require.NoError(t, store.DeleteSnapshot(ctx, snap.ID))

	_, err := store.GetSnapshot(ctx, snap.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	var orphans int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM holdings`).Scan(&orphans))
	assert.Zero(t, orphans)

	assert.ErrorIs(t, store.DeleteSnapshot(ctx, snap.ID), common.ErrNotFound)
}
