package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"farmsync/internal/domain/farm"
)

var _ farm.Repository = (*FarmRepository)(nil)

// FarmRepository CRUD ферм владельца
type FarmRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewFarmRepository(db *Storage, log *slog.Logger) *FarmRepository {
	return &FarmRepository{
		db:  db,
		log: log,
	}
}

func (r *FarmRepository) List(ctx context.Context, userID int64) ([]farm.Farm, error) {
	return selectFarms(ctx, r.db.Pool(), `WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *FarmRepository) Get(ctx context.Context, userID, farmID int64) (*farm.Farm, error) {
	return selectFarm(ctx, r.db.Pool(), `WHERE id = $1 AND user_id = $2`, farmID, userID)
}

func (r *FarmRepository) Create(ctx context.Context, f *farm.Farm) error {
	return insertFarm(ctx, r.db.Pool(), f)
}

func (r *FarmRepository) Update(ctx context.Context, f *farm.Farm) error {
	tag, err := r.db.Pool().Exec(ctx,
		`UPDATE farms SET name = $3, size = $4, plant_type = $5,
		        sync_status = $6, last_synced = $7, updated_at = $8
		 WHERE id = $1 AND user_id = $2`,
		f.ID, f.UserID, f.Name, f.Size, f.PlantType, f.SyncStatus, f.LastSynced, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update farm: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return farm.ErrNotFound
	}
	return nil
}

func (r *FarmRepository) Delete(ctx context.Context, userID, farmID int64) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM farms WHERE id = $1 AND user_id = $2`, farmID, userID)
	if err != nil {
		return fmt.Errorf("delete farm: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return farm.ErrNotFound
	}
	return nil
}

const farmColumns = `id, user_id, name, size, plant_type, mobile_id, sync_status, last_synced, created_at, updated_at`

func scanFarm(row scanner) (*farm.Farm, error) {
	var f farm.Farm
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Size, &f.PlantType,
		&f.MobileID, &f.SyncStatus, &f.LastSynced, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func selectFarm(ctx context.Context, q querier, where string, args ...any) (*farm.Farm, error) {
	f, err := scanFarm(q.QueryRow(ctx, `SELECT `+farmColumns+` FROM farms `+where, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, farm.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select farm: %w", err)
	}
	return f, nil
}

func selectFarms(ctx context.Context, q querier, where string, args ...any) ([]farm.Farm, error) {
	rows, err := q.Query(ctx, `SELECT `+farmColumns+` FROM farms `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("select farms: %w", err)
	}
	farms, err := collect(rows, scanFarm)
	if err != nil {
		return nil, fmt.Errorf("scan farms: %w", err)
	}
	return farms, nil
}

func insertFarm(ctx context.Context, q querier, f *farm.Farm) error {
	err := q.QueryRow(ctx,
		`INSERT INTO farms (user_id, name, size, plant_type, mobile_id, sync_status, last_synced, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		f.UserID, f.Name, f.Size, f.PlantType, f.MobileID, f.SyncStatus, f.LastSynced,
		orNow(f.CreatedAt), orNow(f.UpdatedAt)).Scan(&f.ID)
	if isUniqueViolation(err) {
		return farm.ErrMobileIDTaken
	}
	if err != nil {
		return fmt.Errorf("insert farm: %w", err)
	}
	return nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
