package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"farmsync/internal/domain/farm"
)

// Reconciler сверяет одну запись клиента с серверным состоянием
type Reconciler struct {
	log           *slog.Logger
	allowReparent bool
	now           func() time.Time
}

func NewReconciler(log *slog.Logger, allowReparent bool) *Reconciler {
	return &Reconciler{
		log:           log.With(slog.String("component", "reconciler")),
		allowReparent: allowReparent,
		now:           nowUTC,
	}
}

// Reconcile сопоставляет запись по mobile id и создает или обновляет ее.
// Ошибки записи попадают в Result со статусом failed, error возвращается
// только при сбое изоляции записи (ErrScope).
func (r *Reconciler) Reconcile(ctx context.Context, tx Tx, entity EntityType, fields Fields, owner int64) (Result, error) {
	res := Result{Status: StatusFailed}

	mobileID, err := fields.MobileID()
	if err != nil {
		res.Message = err.Error()
		return res, nil
	}
	res.MobileID = &mobileID

	var (
		serverID int64
		status   ResultStatus
	)
	err = tx.RecordScope(ctx, func(tx Tx) error {
		var err error
		serverID, status, err = r.merge(ctx, tx, entity, mobileID, fields, owner)
		return err
	})
	if errors.Is(err, ErrScope) {
		return Result{}, err
	}
	if err != nil {
		r.log.Warn("record rejected",
			slog.String("entity", string(entity)),
			slog.Int64("mobile_id", mobileID),
			slog.Int64("owner", owner),
			slog.String("error", err.Error()),
		)
		if stampable(err) {
			if err := r.markFailed(ctx, tx, entity, mobileID, owner); err != nil {
				return Result{}, err
			}
		}
		res.Message = err.Error()
		return res, nil
	}

	res.ServerID = &serverID
	res.Status = status
	return res, nil
}

// stampable сообщает, нужно ли помечать сохраненную запись как failed.
// Отказ по чужой или отсутствующей ссылке и гонка за mobile id записи не меняют.
func stampable(err error) bool {
	for _, target := range []error{
		ErrForeignRecord,
		farm.ErrNotFound,
		farm.ErrSectionNotFound,
		farm.ErrSuggestionNotFound,
		farm.ErrMobileIDTaken,
	} {
		if errors.Is(err, target) {
			return false
		}
	}
	return true
}

// markFailed в отдельной точке сохранения ставит failed уже сохраненной записи владельца.
// Ошибка возвращается только при сбое изоляции.
func (r *Reconciler) markFailed(ctx context.Context, tx Tx, entity EntityType, mobileID, owner int64) error {
	log := r.log.With(
		slog.String("entity", string(entity)),
		slog.Int64("mobile_id", mobileID),
	)
	err := tx.RecordScope(ctx, func(tx Tx) error {
		marked, err := tx.MarkFailed(ctx, entity, mobileID, owner)
		if marked {
			log.Debug("stored record marked failed")
		}
		return err
	})
	if errors.Is(err, ErrScope) {
		return err
	}
	if err != nil {
		log.Error("mark record failed", slog.String("error", err.Error()))
	}
	return nil
}

func (r *Reconciler) merge(ctx context.Context, tx Tx, entity EntityType, mobileID int64, fields Fields, owner int64) (int64, ResultStatus, error) {
	switch entity {
	case EntityFarms:
		return r.mergeFarm(ctx, tx, mobileID, fields, owner)
	case EntityBoundaryPoints:
		return r.mergeBoundaryPoint(ctx, tx, mobileID, fields, owner)
	case EntityObservationPoints:
		return r.mergeObservationPoint(ctx, tx, mobileID, fields, owner)
	case EntityInspectionSuggestions:
		return r.mergeSuggestion(ctx, tx, mobileID, fields, owner)
	case EntityInspectionObservations:
		return r.mergeObservation(ctx, tx, mobileID, fields, owner)
	}
	return 0, "", fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func (r *Reconciler) mergeFarm(ctx context.Context, tx Tx, mobileID int64, fields Fields, owner int64) (int64, ResultStatus, error) {
	var rec farmRecord
	if err := decodeFields(fields, &rec); err != nil {
		return 0, "", err
	}

	now := r.now()
	existing, err := tx.FarmByMobileID(ctx, mobileID)
	if err != nil {
		return 0, "", fmt.Errorf("match farm: %w", err)
	}

	if existing == nil {
		if err := requireFields(rec.missing()); err != nil {
			return 0, "", err
		}
		f := &farm.Farm{UserID: owner, SyncMeta: newMeta(mobileID, now)}
		rec.apply(f)
		if err := tx.CreateFarm(ctx, f); err != nil {
			return 0, "", fmt.Errorf("create farm: %w", err)
		}
		return f.ID, StatusCreated, nil
	}

	if existing.UserID != owner {
		return 0, "", foreignRecord(mobileID)
	}
	rec.apply(existing)
	existing.MarkSynced(now)
	if err := tx.UpdateFarm(ctx, existing); err != nil {
		return 0, "", fmt.Errorf("update farm: %w", err)
	}
	return existing.ID, StatusUpdated, nil
}

func (r *Reconciler) mergeBoundaryPoint(ctx context.Context, tx Tx, mobileID int64, fields Fields, owner int64) (int64, ResultStatus, error) {
	var rec boundaryPointRecord
	if err := decodeFields(fields, &rec); err != nil {
		return 0, "", err
	}

	existing, err := tx.BoundaryPointByMobileID(ctx, mobileID)
	if err != nil {
		return 0, "", fmt.Errorf("match boundary point: %w", err)
	}
	if existing != nil && existing.OwnerID != owner {
		return 0, "", foreignRecord(mobileID)
	}

	parent, err := r.resolveFarm(ctx, tx, rec.FarmID, existing == nil, owner)
	if err != nil {
		return 0, "", err
	}

	now := r.now()
	if existing == nil {
		if err := requireFields(rec.missing()); err != nil {
			return 0, "", err
		}
		p := &farm.BoundaryPoint{FarmID: parent.ID, OwnerID: owner, SyncMeta: newMeta(mobileID, now)}
		rec.apply(p)
		if err := tx.CreateBoundaryPoint(ctx, p); err != nil {
			return 0, "", fmt.Errorf("create boundary point: %w", err)
		}
		return p.ID, StatusCreated, nil
	}

	if err := r.moveTo(&existing.FarmID, parent); err != nil {
		return 0, "", err
	}
	rec.apply(existing)
	existing.MarkSynced(now)
	if err := tx.UpdateBoundaryPoint(ctx, existing); err != nil {
		return 0, "", fmt.Errorf("update boundary point: %w", err)
	}
	return existing.ID, StatusUpdated, nil
}

func (r *Reconciler) mergeObservationPoint(ctx context.Context, tx Tx, mobileID int64, fields Fields, owner int64) (int64, ResultStatus, error) {
	var rec observationPointRecord
	if err := decodeFields(fields, &rec); err != nil {
		return 0, "", err
	}

	existing, err := tx.ObservationPointByMobileID(ctx, mobileID)
	if err != nil {
		return 0, "", fmt.Errorf("match observation point: %w", err)
	}
	if existing != nil && existing.OwnerID != owner {
		return 0, "", foreignRecord(mobileID)
	}

	parent, err := r.resolveFarm(ctx, tx, rec.FarmID, existing == nil, owner)
	if err != nil {
		return 0, "", err
	}
	var suggestion *farm.InspectionSuggestion
	if rec.InspectionSuggestionID != nil {
		if suggestion, err = resolveSuggestion(ctx, tx, *rec.InspectionSuggestionID, owner); err != nil {
			return 0, "", err
		}
	}

	now := r.now()
	if existing == nil {
		if err := requireFields(rec.missing()); err != nil {
			return 0, "", err
		}
		p := &farm.ObservationPoint{
			FarmID:            parent.ID,
			ObservationStatus: farm.DefaultObservationStatus,
			OwnerID:           owner,
			SyncMeta:          newMeta(mobileID, now),
		}
		rec.apply(p)
		if suggestion != nil {
			p.InspectionSuggestionID = &suggestion.ID
		}
		if err := tx.CreateObservationPoint(ctx, p); err != nil {
			return 0, "", fmt.Errorf("create observation point: %w", err)
		}
		return p.ID, StatusCreated, nil
	}

	if err := r.moveTo(&existing.FarmID, parent); err != nil {
		return 0, "", err
	}
	rec.apply(existing)
	if suggestion != nil {
		existing.InspectionSuggestionID = &suggestion.ID
	}
	existing.MarkSynced(now)
	if err := tx.UpdateObservationPoint(ctx, existing); err != nil {
		return 0, "", fmt.Errorf("update observation point: %w", err)
	}
	return existing.ID, StatusUpdated, nil
}

func (r *Reconciler) mergeSuggestion(ctx context.Context, tx Tx, mobileID int64, fields Fields, owner int64) (int64, ResultStatus, error) {
	var rec suggestionRecord
	if err := decodeFields(fields, &rec); err != nil {
		return 0, "", err
	}

	existing, err := tx.InspectionSuggestionByMobileID(ctx, mobileID)
	if err != nil {
		return 0, "", fmt.Errorf("match inspection suggestion: %w", err)
	}
	if existing != nil && existing.OwnerID != owner {
		return 0, "", foreignRecord(mobileID)
	}

	parent, err := r.resolveFarm(ctx, tx, rec.PropertyLocation, existing == nil, owner)
	if err != nil {
		return 0, "", err
	}

	now := r.now()
	var (
		s      *farm.InspectionSuggestion
		status ResultStatus
	)
	if existing == nil {
		if err := requireFields(rec.missing()); err != nil {
			return 0, "", err
		}
		s = &farm.InspectionSuggestion{
			UserID:   owner,
			FarmID:   parent.ID,
			OwnerID:  owner,
			SyncMeta: newMeta(mobileID, now),
		}
		rec.apply(s)
		if err := tx.CreateInspectionSuggestion(ctx, s); err != nil {
			return 0, "", fmt.Errorf("create inspection suggestion: %w", err)
		}
		status = StatusCreated
	} else {
		s = existing
		if err := r.moveTo(&s.FarmID, parent); err != nil {
			return 0, "", err
		}
		rec.apply(s)
		s.MarkSynced(now)
		if err := tx.UpdateInspectionSuggestion(ctx, s); err != nil {
			return 0, "", fmt.Errorf("update inspection suggestion: %w", err)
		}
		status = StatusUpdated
	}

	n, err := tx.PropagateSuggestion(ctx, s, now)
	if err != nil {
		return 0, "", fmt.Errorf("propagate inspection suggestion: %w", err)
	}
	r.log.Debug("suggestion propagated",
		slog.Int64("suggestion_id", s.ID),
		slog.Int64("farm_id", s.FarmID),
		slog.Int64("observation_points", n),
	)

	return s.ID, status, nil
}

func (r *Reconciler) mergeObservation(ctx context.Context, tx Tx, mobileID int64, fields Fields, owner int64) (int64, ResultStatus, error) {
	var rec observationRecord
	if err := decodeFields(fields, &rec); err != nil {
		return 0, "", err
	}

	existing, err := tx.InspectionObservationByMobileID(ctx, mobileID)
	if err != nil {
		return 0, "", fmt.Errorf("match inspection observation: %w", err)
	}
	if existing != nil && existing.OwnerID != owner {
		return 0, "", foreignRecord(mobileID)
	}

	parent, err := r.resolveFarm(ctx, tx, rec.Farm, existing == nil, owner)
	if err != nil {
		return 0, "", err
	}

	var suggestion *farm.InspectionSuggestion
	switch {
	case rec.Inspection != nil:
		if suggestion, err = resolveSuggestion(ctx, tx, *rec.Inspection, owner); err != nil {
			return 0, "", err
		}
	case existing == nil:
		return 0, "", fmt.Errorf("%w: inspection", ErrMissingField)
	}

	var section *farm.BoundaryPoint
	if rec.Section != nil {
		section, err = tx.BoundaryPointByID(ctx, owner, *rec.Section)
		if errors.Is(err, farm.ErrSectionNotFound) {
			return 0, "", fmt.Errorf("section with ID %d not found or does not belong to user: %w", *rec.Section, err)
		}
		if err != nil {
			return 0, "", fmt.Errorf("resolve section: %w", err)
		}
	}

	now := r.now()
	if existing == nil {
		if err := requireFields(rec.missing()); err != nil {
			return 0, "", err
		}
		o := &farm.InspectionObservation{
			UserID:                 owner,
			InspectionSuggestionID: suggestion.ID,
			FarmID:                 parent.ID,
			OwnerID:                owner,
			SyncMeta:               newMeta(mobileID, now),
		}
		if section != nil {
			o.SectionID = &section.ID
		}
		rec.apply(o)
		if err := tx.CreateInspectionObservation(ctx, o); err != nil {
			return 0, "", fmt.Errorf("create inspection observation: %w", err)
		}
		return o.ID, StatusCreated, nil
	}

	if err := r.moveTo(&existing.FarmID, parent); err != nil {
		return 0, "", err
	}
	if suggestion != nil {
		existing.InspectionSuggestionID = suggestion.ID
	}
	if section != nil {
		existing.SectionID = &section.ID
	}
	rec.apply(existing)
	existing.MarkSynced(now)
	if err := tx.UpdateInspectionObservation(ctx, existing); err != nil {
		return 0, "", fmt.Errorf("update inspection observation: %w", err)
	}
	return existing.ID, StatusUpdated, nil
}

// resolveFarm находит ферму владельца по серверному id. Для новой записи
// ссылка обязательна, для обновления ее отсутствие оставляет ферму прежней (nil).
func (r *Reconciler) resolveFarm(ctx context.Context, tx Tx, id *int64, required bool, owner int64) (*farm.Farm, error) {
	if id == nil {
		if required {
			return nil, fmt.Errorf("%w: farm", ErrMissingField)
		}
		return nil, nil
	}

	f, err := tx.FarmByID(ctx, owner, *id)
	if errors.Is(err, farm.ErrNotFound) {
		return nil, fmt.Errorf("farm with ID %d not found or does not belong to user: %w", *id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve farm: %w", err)
	}
	return f, nil
}

// moveTo переносит дочернюю запись на ферму parent, если это разрешено
func (r *Reconciler) moveTo(farmID *int64, parent *farm.Farm) error {
	if parent == nil || *farmID == parent.ID {
		return nil
	}
	if !r.allowReparent {
		return fmt.Errorf("%w: stored farm %d, got %d", ErrReparent, *farmID, parent.ID)
	}
	*farmID = parent.ID
	return nil
}

func resolveSuggestion(ctx context.Context, tx Tx, id, owner int64) (*farm.InspectionSuggestion, error) {
	s, err := tx.InspectionSuggestionByID(ctx, owner, id)
	if errors.Is(err, farm.ErrSuggestionNotFound) {
		return nil, fmt.Errorf("inspection suggestion with ID %d not found or does not belong to user: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve inspection suggestion: %w", err)
	}
	return s, nil
}

func foreignRecord(mobileID int64) error {
	return fmt.Errorf("mobile id %d: %w", mobileID, ErrForeignRecord)
}

func newMeta(mobileID int64, now time.Time) farm.SyncMeta {
	meta := farm.SyncMeta{MobileID: &mobileID, CreatedAt: now}
	meta.MarkSynced(now)
	return meta
}
