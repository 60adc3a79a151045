package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"

	"farmsync/internal/domain/farm"
	"farmsync/internal/domain/sync"
)

var _ sync.Store = (*SyncStore)(nil)

// SyncStore реализация sync.Store поверх pgx
type SyncStore struct {
	db  *Storage
	log *slog.Logger
}

func NewSyncStore(db *Storage, log *slog.Logger) *SyncStore {
	return &SyncStore{
		db:  db,
		log: log.With(slog.String("component", "sync_store")),
	}
}

// WithinTx открывает транзакцию READ COMMITTED. Любая ошибка fn или commit
// откатывает все изменения пакета.
func (s *SyncStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx sync.Tx) error) (err error) {
	tx, err := s.db.Pool().BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Error("rollback failed", slog.String("error", rbErr.Error()))
		}
	}()

	if err = fn(ctx, &syncTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SyncStore) FarmsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.Farm, error) {
	return selectFarms(ctx, s.db.Pool(),
		`WHERE user_id = $1 AND ($2::timestamptz IS NULL OR updated_at > $2) ORDER BY id`, owner, since)
}

func (s *SyncStore) BoundaryPointsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.BoundaryPoint, error) {
	return selectMany(ctx, s.db.Pool(),
		`SELECT `+boundaryPointColumns+boundaryPointFrom+
			`WHERE f.user_id = $1 AND ($2::timestamptz IS NULL OR bp.updated_at > $2) ORDER BY bp.id`,
		scanBoundaryPoint, owner, since)
}

func (s *SyncStore) ObservationPointsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.ObservationPoint, error) {
	return selectMany(ctx, s.db.Pool(),
		`SELECT `+observationPointColumns+observationPointFrom+
			`WHERE f.user_id = $1 AND ($2::timestamptz IS NULL OR op.updated_at > $2) ORDER BY op.id`,
		scanObservationPoint, owner, since)
}

func (s *SyncStore) InspectionSuggestionsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.InspectionSuggestion, error) {
	return selectMany(ctx, s.db.Pool(),
		`SELECT `+suggestionColumns+suggestionFrom+
			`WHERE f.user_id = $1 AND ($2::timestamptz IS NULL OR s.updated_at > $2) ORDER BY s.id`,
		scanSuggestion, owner, since)
}

func (s *SyncStore) InspectionObservationsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.InspectionObservation, error) {
	return selectMany(ctx, s.db.Pool(),
		`SELECT `+observationColumns+observationFrom+
			`WHERE f.user_id = $1 AND ($2::timestamptz IS NULL OR o.updated_at > $2) ORDER BY o.id`,
		scanObservation, owner, since)
}

// syncTx операции внутри транзакции пакета или точки сохранения
type syncTx struct {
	tx pgx.Tx
}

// RecordScope вложенная pgx транзакция это SAVEPOINT
func (t *syncTx) RecordScope(ctx context.Context, fn func(tx sync.Tx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: savepoint: %v", sync.ErrScope, err)
	}

	if err := fn(&syncTx{tx: sp}); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w: rollback to savepoint: %v (record: %v)", sync.ErrScope, rbErr, err)
		}
		return err
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("%w: release savepoint: %v", sync.ErrScope, err)
	}
	return nil
}

var markFailedQueries = map[sync.EntityType]string{
	sync.EntityFarms: `UPDATE farms SET sync_status = $3
		WHERE mobile_id = $1 AND user_id = $2`,
	sync.EntityBoundaryPoints: `UPDATE boundary_points bp SET sync_status = $3 FROM farms f
		WHERE f.id = bp.farm_id AND bp.mobile_id = $1 AND f.user_id = $2`,
	sync.EntityObservationPoints: `UPDATE observation_points op SET sync_status = $3 FROM farms f
		WHERE f.id = op.farm_id AND op.mobile_id = $1 AND f.user_id = $2`,
	sync.EntityInspectionSuggestions: `UPDATE inspection_suggestions s SET sync_status = $3 FROM farms f
		WHERE f.id = s.farm_id AND s.mobile_id = $1 AND f.user_id = $2`,
	sync.EntityInspectionObservations: `UPDATE inspection_observations o SET sync_status = $3 FROM farms f
		WHERE f.id = o.farm_id AND o.mobile_id = $1 AND f.user_id = $2`,
}

func (t *syncTx) MarkFailed(ctx context.Context, entity sync.EntityType, mobileID, owner int64) (bool, error) {
	query, ok := markFailedQueries[entity]
	if !ok {
		return false, fmt.Errorf("%w: %q", sync.ErrUnknownEntity, entity)
	}
	tag, err := t.tx.Exec(ctx, query, mobileID, owner, farm.SyncFailed)
	if err != nil {
		return false, fmt.Errorf("mark %s failed: %w", entity, err)
	}
	return tag.RowsAffected() > 0, nil
}

func orNil[T any](item *T, err error, notFound error) (*T, error) {
	if errors.Is(err, notFound) {
		return nil, nil
	}
	return item, err
}

func (t *syncTx) FarmByID(ctx context.Context, owner, id int64) (*farm.Farm, error) {
	return selectFarm(ctx, t.tx, `WHERE id = $1 AND user_id = $2`, id, owner)
}

func (t *syncTx) FarmByMobileID(ctx context.Context, mobileID int64) (*farm.Farm, error) {
	f, err := selectFarm(ctx, t.tx, `WHERE mobile_id = $1 FOR UPDATE`, mobileID)
	return orNil(f, err, farm.ErrNotFound)
}

func (t *syncTx) CreateFarm(ctx context.Context, f *farm.Farm) error {
	return insertFarm(ctx, t.tx, f)
}

func (t *syncTx) UpdateFarm(ctx context.Context, f *farm.Farm) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE farms SET name = $2, size = $3, plant_type = $4,
		        sync_status = $5, last_synced = $6, updated_at = $7
		 WHERE id = $1`,
		f.ID, f.Name, f.Size, f.PlantType, f.SyncStatus, f.LastSynced, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update farm: %w", err)
	}
	return nil
}

func (t *syncTx) BoundaryPointByID(ctx context.Context, owner, id int64) (*farm.BoundaryPoint, error) {
	return selectOne(ctx, t.tx,
		`SELECT `+boundaryPointColumns+boundaryPointFrom+`WHERE bp.id = $1 AND f.user_id = $2`,
		scanBoundaryPoint, farm.ErrSectionNotFound, id, owner)
}

func (t *syncTx) BoundaryPointByMobileID(ctx context.Context, mobileID int64) (*farm.BoundaryPoint, error) {
	return selectOne(ctx, t.tx,
		`SELECT `+boundaryPointColumns+boundaryPointFrom+`WHERE bp.mobile_id = $1 FOR UPDATE OF bp`,
		scanBoundaryPoint, nil, mobileID)
}

func (t *syncTx) CreateBoundaryPoint(ctx context.Context, p *farm.BoundaryPoint) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO boundary_points (farm_id, latitude, longitude, description,
		                              mobile_id, sync_status, last_synced, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		p.FarmID, p.Latitude, p.Longitude, p.Description,
		p.MobileID, p.SyncStatus, p.LastSynced, orNow(p.CreatedAt), orNow(p.UpdatedAt)).Scan(&p.ID)
	return insertErr("boundary point", err)
}

func (t *syncTx) UpdateBoundaryPoint(ctx context.Context, p *farm.BoundaryPoint) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE boundary_points SET farm_id = $2, latitude = $3, longitude = $4, description = $5,
		        sync_status = $6, last_synced = $7, updated_at = $8
		 WHERE id = $1`,
		p.ID, p.FarmID, p.Latitude, p.Longitude, p.Description, p.SyncStatus, p.LastSynced, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update boundary point: %w", err)
	}
	return nil
}

func (t *syncTx) ObservationPointByMobileID(ctx context.Context, mobileID int64) (*farm.ObservationPoint, error) {
	return selectOne(ctx, t.tx,
		`SELECT `+observationPointColumns+observationPointFrom+`WHERE op.mobile_id = $1 FOR UPDATE OF op`,
		scanObservationPoint, nil, mobileID)
}

func (t *syncTx) CreateObservationPoint(ctx context.Context, p *farm.ObservationPoint) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO observation_points (farm_id, latitude, longitude, observation_status, name, segment,
		                                 inspection_suggestion_id, confidence_level, target_entity,
		                                 mobile_id, sync_status, last_synced, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		p.FarmID, p.Latitude, p.Longitude, p.ObservationStatus, p.Name, p.Segment,
		p.InspectionSuggestionID, p.ConfidenceLevel, p.TargetEntity,
		p.MobileID, p.SyncStatus, p.LastSynced, orNow(p.CreatedAt), orNow(p.UpdatedAt)).Scan(&p.ID)
	return insertErr("observation point", err)
}

func (t *syncTx) UpdateObservationPoint(ctx context.Context, p *farm.ObservationPoint) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE observation_points SET farm_id = $2, latitude = $3, longitude = $4, observation_status = $5,
		        name = $6, segment = $7, inspection_suggestion_id = $8, confidence_level = $9,
		        target_entity = $10, sync_status = $11, last_synced = $12, updated_at = $13
		 WHERE id = $1`,
		p.ID, p.FarmID, p.Latitude, p.Longitude, p.ObservationStatus,
		p.Name, p.Segment, p.InspectionSuggestionID, p.ConfidenceLevel,
		p.TargetEntity, p.SyncStatus, p.LastSynced, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update observation point: %w", err)
	}
	return nil
}

func (t *syncTx) InspectionSuggestionByID(ctx context.Context, owner, id int64) (*farm.InspectionSuggestion, error) {
	return selectOne(ctx, t.tx,
		`SELECT `+suggestionColumns+suggestionFrom+`WHERE s.id = $1 AND f.user_id = $2`,
		scanSuggestion, farm.ErrSuggestionNotFound, id, owner)
}

func (t *syncTx) InspectionSuggestionByMobileID(ctx context.Context, mobileID int64) (*farm.InspectionSuggestion, error) {
	return selectOne(ctx, t.tx,
		`SELECT `+suggestionColumns+suggestionFrom+`WHERE s.mobile_id = $1 FOR UPDATE OF s`,
		scanSuggestion, nil, mobileID)
}

func (t *syncTx) CreateInspectionSuggestion(ctx context.Context, s *farm.InspectionSuggestion) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inspection_suggestions (user_id, farm_id, target_entity, confidence_level, area_size,
		                                     density_of_plant, mobile_id, sync_status, last_synced,
		                                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		s.UserID, s.FarmID, s.TargetEntity, s.ConfidenceLevel, s.AreaSize,
		s.DensityOfPlant, s.MobileID, s.SyncStatus, s.LastSynced,
		orNow(s.CreatedAt), orNow(s.UpdatedAt)).Scan(&s.ID)
	return insertErr("inspection suggestion", err)
}

func (t *syncTx) UpdateInspectionSuggestion(ctx context.Context, s *farm.InspectionSuggestion) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE inspection_suggestions SET farm_id = $2, target_entity = $3, confidence_level = $4,
		        area_size = $5, density_of_plant = $6, sync_status = $7, last_synced = $8, updated_at = $9
		 WHERE id = $1`,
		s.ID, s.FarmID, s.TargetEntity, s.ConfidenceLevel,
		s.AreaSize, s.DensityOfPlant, s.SyncStatus, s.LastSynced, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inspection suggestion: %w", err)
	}
	return nil
}

func (t *syncTx) PropagateSuggestion(ctx context.Context, s *farm.InspectionSuggestion, at time.Time) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE observation_points
		 SET inspection_suggestion_id = $2, target_entity = $3, confidence_level = $4,
		     sync_status = $5, last_synced = $6, updated_at = $6
		 WHERE farm_id = $1`,
		s.FarmID, s.ID, s.TargetEntity, s.ConfidenceLevel, farm.SyncSynced, at)
	if err != nil {
		return 0, fmt.Errorf("update observation points: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *syncTx) InspectionObservationByMobileID(ctx context.Context, mobileID int64) (*farm.InspectionObservation, error) {
	return selectOne(ctx, t.tx,
		`SELECT `+observationColumns+observationFrom+`WHERE o.mobile_id = $1 FOR UPDATE OF o`,
		scanObservation, nil, mobileID)
}

func (t *syncTx) CreateInspectionObservation(ctx context.Context, o *farm.InspectionObservation) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inspection_observations (user_id, date, inspection_suggestion_id, farm_id, section_id,
		                                      confidence, plant_per_section, status, target_entity, severity,
		                                      mobile_id, sync_status, last_synced, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		o.UserID, o.Date, o.InspectionSuggestionID, o.FarmID, o.SectionID,
		o.Confidence, o.PlantPerSection, o.Status, o.TargetEntity, o.Severity,
		o.MobileID, o.SyncStatus, o.LastSynced, orNow(o.CreatedAt), orNow(o.UpdatedAt)).Scan(&o.ID)
	return insertErr("inspection observation", err)
}

func (t *syncTx) UpdateInspectionObservation(ctx context.Context, o *farm.InspectionObservation) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE inspection_observations SET date = $2, inspection_suggestion_id = $3, farm_id = $4,
		        section_id = $5, confidence = $6, plant_per_section = $7, status = $8,
		        target_entity = $9, severity = $10, sync_status = $11, last_synced = $12, updated_at = $13
		 WHERE id = $1`,
		o.ID, o.Date, o.InspectionSuggestionID, o.FarmID,
		o.SectionID, o.Confidence, o.PlantPerSection, o.Status,
		o.TargetEntity, o.Severity, o.SyncStatus, o.LastSynced, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inspection observation: %w", err)
	}
	return nil
}

func insertErr(entity string, err error) error {
	if isUniqueViolation(err) {
		return farm.ErrMobileIDTaken
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", entity, err)
	}
	return nil
}
