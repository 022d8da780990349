package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/parlor/internal/game/world"
	"github.com/cory-johannsen/parlor/internal/storage"
)

// ErrSnapshotNotFound is returned when no snapshot row exists. It matches
// storage.ErrNoSnapshot under errors.Is.
var ErrSnapshotNotFound = fmt.Errorf("postgres: %w", storage.ErrNoSnapshot)

// DefaultKeep is how many snapshot rows Save retains when keep is not positive.
const DefaultKeep = 10

// SnapshotInfo describes one stored snapshot without its payload.
type SnapshotInfo struct {
	ID        int64
	Version   int
	TakenAt   time.Time
	Items     int
	CreatedAt time.Time
}

// SnapshotRepository stores world snapshots as JSONB rows, newest last.
type SnapshotRepository struct {
	db   *pgxpool.Pool
	keep int
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool
// that keeps the newest keep rows.
//
// Precondition: db must be a valid, open connection pool with the
// world_snapshots migration applied.
func NewSnapshotRepository(db *pgxpool.Pool, keep int) *SnapshotRepository {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &SnapshotRepository{db: db, keep: keep}
}

// Save inserts s and prunes rows beyond the retention count in one transaction.
//
// Postcondition: the newest row holds s.
func (r *SnapshotRepository) Save(ctx context.Context, s *world.Snapshot) error {
	data, err := storage.Encode(s)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `
		INSERT INTO world_snapshots (version, taken_at, items, data)
		VALUES ($1, $2, $3, $4)`,
		s.Version, s.TakenAt, len(s.Items), data,
	); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM world_snapshots
		WHERE id NOT IN (SELECT id FROM world_snapshots ORDER BY id DESC LIMIT $1)`,
		r.keep,
	); err != nil {
		return fmt.Errorf("pruning snapshots: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load returns the newest snapshot.
//
// Postcondition: Returns the snapshot or ErrSnapshotNotFound when the table is empty.
func (r *SnapshotRepository) Load(ctx context.Context) (*world.Snapshot, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM world_snapshots ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return storage.Decode(data)
}

// List returns the retained snapshots, newest first.
func (r *SnapshotRepository) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, version, taken_at, items, created_at
		FROM world_snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Version, &info.TakenAt, &info.Items, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return out, nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *SnapshotRepository) Close() error { return nil }
