package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"github.com/google/uuid"
)

// LatestRef resolves to the most recent snapshot.
const LatestRef = "latest"

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SaveSnapshot stores a snapshot and its records. A missing ID or timestamp is generated and
// written back into snap.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	if snap.Sources == nil {
		snap.Sources = []string{}
	}

	sources, err := json.Marshal(snap.Sources)
	if err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, created_at, sources, note) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.CreatedAt.Format(timeLayout), string(sources), snap.Note)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: snapshot %s", common.ErrDuplicateEntry, snap.ID)
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO holdings (
			scan_id, position, name, code, source_type,
			quantity, market_value, cost_price, current_price,
			position_ratio, profit_ratio, profit_amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range snap.Records {
		_, err := stmt.ExecContext(ctx,
			snap.ID, i, rec.Name, rec.Code, string(rec.SourceType),
			rec.Quantity, rec.MarketValue, rec.CostPrice, rec.CurrentPrice,
			rec.PositionRatio, rec.ProfitRatio, rec.ProfitAmount)
		if err != nil {
			return fmt.Errorf("failed to insert holding %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads a snapshot by its exact ID.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, sources, note FROM scans WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadRecords(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// LatestSnapshot loads the most recently created snapshot.
func (s *SQLiteStorage) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, sources, note FROM scans ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadRecords(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// ResolveSnapshot accepts "latest", a full ID or an unambiguous ID prefix.
func (s *SQLiteStorage) ResolveSnapshot(ctx context.Context, ref string) (*model.Snapshot, error) {
	if err := validateString(ref, "ref"); err != nil {
		return nil, err
	}
	if ref == LatestRef {
		return s.LatestSnapshot(ctx)
	}

	snap, err := s.GetSnapshot(ctx, ref)
	if err == nil || !errors.Is(err, common.ErrNotFound) {
		return snap, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM scans WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(ref)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	switch len(ids) {
	case 0:
		return nil, fmt.Errorf("snapshot %q: %w", ref, common.ErrNotFound)
	case 1:
		return s.GetSnapshot(ctx, ids[0])
	default:
		return nil, fmt.Errorf("snapshot prefix %q is ambiguous", ref)
	}
}

// ListSnapshots returns every snapshot, newest first, without records.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context) ([]model.SnapshotInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.created_at, s.sources, s.note,
			COUNT(h.id), COALESCE(SUM(h.market_value), 0)
		FROM scans s
		LEFT JOIN holdings h ON h.scan_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []model.SnapshotInfo
	for rows.Next() {
		var info model.SnapshotInfo
		var createdAt, sources string
		if err := rows.Scan(&info.ID, &createdAt, &sources, &info.Note, &info.RecordCount, &info.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if info.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if info.Sources, err = decodeSources(sources); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return infos, nil
}

// DeleteSnapshot removes a snapshot and its records.
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %q: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanSnapshot(row *sql.Row) (*model.Snapshot, error) {
	var snap model.Snapshot
	var createdAt, sources string
	if err := row.Scan(&snap.ID, &createdAt, &sources, &snap.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var err error
	if snap.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if snap.Sources, err = decodeSources(sources); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStorage) loadRecords(ctx context.Context, snap *model.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, code, source_type,
			quantity, market_value, cost_price, current_price,
			position_ratio, profit_ratio, profit_amount
		FROM holdings
		WHERE scan_id = ?
		ORDER BY position`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to query holdings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap.Records = []model.Record{}
	for rows.Next() {
		var rec model.Record
		var source string
		var quantity, marketValue, costPrice, currentPrice, positionRatio, profitRatio, profitAmount sql.NullFloat64
		if err := rows.Scan(&rec.Name, &rec.Code, &source,
			&quantity, &marketValue, &costPrice, &currentPrice,
			&positionRatio, &profitRatio, &profitAmount); err != nil {
			return fmt.Errorf("failed to scan holding: %w", err)
		}
		rec.SourceType = model.Channel(source)
		rec.Quantity = nullable(quantity)
		rec.MarketValue = nullable(marketValue)
		rec.CostPrice = nullable(costPrice)
		rec.CurrentPrice = nullable(currentPrice)
		rec.PositionRatio = nullable(positionRatio)
		rec.ProfitRatio = nullable(profitRatio)
		rec.ProfitAmount = nullable(profitAmount)
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating holdings: %w", err)
	}
	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return model.Float(v.Float64)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", common.ErrDatabaseCorrupted, s)
	}
	return t, nil
}

func decodeSources(s string) ([]string, error) {
	var sources []string
	if err := json.Unmarshal([]byte(s), &sources); err != nil {
		return nil, fmt.Errorf("%w: bad sources %q", common.ErrDatabaseCorrupted, s)
	}
	if sources == nil {
		sources = []string{}
	}
	return sources, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
