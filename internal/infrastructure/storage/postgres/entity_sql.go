package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"farmsync/internal/domain/farm"
)

// Дочерние сущности читаются вместе с владельцем фермы (f.user_id)

const boundaryPointColumns = `bp.id, bp.farm_id, bp.latitude, bp.longitude, bp.description,
	bp.mobile_id, bp.sync_status, bp.last_synced, bp.created_at, bp.updated_at, f.user_id`

const boundaryPointFrom = ` FROM boundary_points bp JOIN farms f ON f.id = bp.farm_id `

func scanBoundaryPoint(row scanner) (*farm.BoundaryPoint, error) {
	var p farm.BoundaryPoint
	err := row.Scan(&p.ID, &p.FarmID, &p.Latitude, &p.Longitude, &p.Description,
		&p.MobileID, &p.SyncStatus, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt, &p.OwnerID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const observationPointColumns = `op.id, op.farm_id, op.latitude, op.longitude, op.observation_status, op.name,
	op.segment, op.inspection_suggestion_id, op.confidence_level, op.target_entity,
	op.mobile_id, op.sync_status, op.last_synced, op.created_at, op.updated_at, f.user_id`

const observationPointFrom = ` FROM observation_points op JOIN farms f ON f.id = op.farm_id `

func scanObservationPoint(row scanner) (*farm.ObservationPoint, error) {
	var p farm.ObservationPoint
	err := row.Scan(&p.ID, &p.FarmID, &p.Latitude, &p.Longitude, &p.ObservationStatus, &p.Name,
		&p.Segment, &p.InspectionSuggestionID, &p.ConfidenceLevel, &p.TargetEntity,
		&p.MobileID, &p.SyncStatus, &p.LastSynced, &p.CreatedAt, &p.UpdatedAt, &p.OwnerID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const suggestionColumns = `s.id, s.user_id, s.farm_id, s.target_entity, s.confidence_level, s.area_size,
	s.density_of_plant, s.mobile_id, s.sync_status, s.last_synced, s.created_at, s.updated_at, f.user_id`

const suggestionFrom = ` FROM inspection_suggestions s JOIN farms f ON f.id = s.farm_id `

func scanSuggestion(row scanner) (*farm.InspectionSuggestion, error) {
	var s farm.InspectionSuggestion
	err := row.Scan(&s.ID, &s.UserID, &s.FarmID, &s.TargetEntity, &s.ConfidenceLevel, &s.AreaSize,
		&s.DensityOfPlant, &s.MobileID, &s.SyncStatus, &s.LastSynced, &s.CreatedAt, &s.UpdatedAt, &s.OwnerID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const observationColumns = `o.id, o.user_id, o.date, o.inspection_suggestion_id, o.farm_id, o.section_id,
	o.confidence, o.plant_per_section, o.status, o.target_entity, o.severity,
	o.mobile_id, o.sync_status, o.last_synced, o.created_at, o.updated_at, f.user_id`

const observationFrom = ` FROM inspection_observations o JOIN farms f ON f.id = o.farm_id `

func scanObservation(row scanner) (*farm.InspectionObservation, error) {
	var o farm.InspectionObservation
	err := row.Scan(&o.ID, &o.UserID, &o.Date, &o.InspectionSuggestionID, &o.FarmID, &o.SectionID,
		&o.Confidence, &o.PlantPerSection, &o.Status, &o.TargetEntity, &o.Severity,
		&o.MobileID, &o.SyncStatus, &o.LastSynced, &o.CreatedAt, &o.UpdatedAt, &o.OwnerID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// selectOne возвращает (nil, nil), если строки нет и notFound == nil
func selectOne[T any](ctx context.Context, q querier, query string, scan func(scanner) (*T, error), notFound error, args ...any) (*T, error) {
	item, err := scan(q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return item, nil
}

func selectMany[T any](ctx context.Context, q querier, query string, scan func(scanner) (*T, error), args ...any) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	items, err := collect(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return items, nil
}
