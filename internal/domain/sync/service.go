package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"farmsync/internal/domain/farm"
)

// Servicer интерфейс сервиса синхронизации
type Servicer interface {
	// Sync сверяет полный пакет всех сущностей в одной транзакции
	Sync(ctx context.Context, owner int64, payload Payload) (*Report, error)

	// SyncEntity сверяет записи одного типа сущности
	SyncEntity(ctx context.Context, owner int64, entity EntityType, payload Payload) (*EntityReport, error)

	// Pending* возвращают записи владельца, измененные после lastSync
	PendingFarms(ctx context.Context, owner int64, lastSync string) ([]farm.Farm, error)
	PendingBoundaryPoints(ctx context.Context, owner int64, lastSync string) ([]farm.BoundaryPoint, error)
	PendingObservationPoints(ctx context.Context, owner int64, lastSync string) ([]farm.ObservationPoint, error)
	PendingInspectionSuggestions(ctx context.Context, owner int64, lastSync string) ([]farm.InspectionSuggestion, error)
	PendingInspectionObservations(ctx context.Context, owner int64, lastSync string) ([]farm.InspectionObservation, error)
}

// Service реализация сервиса синхронизации
type Service struct {
	store      Store
	reconciler *Reconciler
	log        *slog.Logger
	config     *ServiceConfig
	now        func() time.Time
}

// NewService создает новый сервис синхронизации
func NewService(store Store, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = defaultConfig()
	}
	log = log.With(slog.String("component", "sync"))

	return &Service{
		store:      store,
		reconciler: NewReconciler(log, config.AllowReparent),
		log:        log,
		config:     config,
		now:        nowUTC,
	}
}

// Sync обрабатывает сущности в фиксированном порядке: родители раньше детей.
// Ошибки отдельных записей попадают в отчет, любая другая ошибка
// откатывает весь пакет.
func (s *Service) Sync(ctx context.Context, owner int64, payload Payload) (*Report, error) {
	if err := s.checkLimit(payload.Len()); err != nil {
		return nil, err
	}

	started := time.Now()
	results := newResults()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, entity := range Order {
			res, err := s.reconcileAll(ctx, tx, entity, payload.Records(entity), owner)
			if err != nil {
				return fmt.Errorf("%s: %w", entity, err)
			}
			results.set(entity, res)
		}
		return nil
	})
	if err != nil {
		s.log.Error("sync batch rolled back", slog.Int64("owner", owner), slog.String("error", err.Error()))
		return nil, fmt.Errorf("sync batch: %w", err)
	}

	var failed int
	for _, entity := range Order {
		_, _, f := countStatuses(results.Get(entity))
		failed += f
	}
	s.log.Info("sync batch committed",
		slog.Int64("owner", owner),
		slog.Int("records", payload.Len()),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(started)),
	)

	return &Report{
		Status:    "success",
		Timestamp: s.now(),
		Results:   results,
	}, nil
}

// SyncEntity обрабатывает только записи entity, остальные ключи пакета игнорируются
func (s *Service) SyncEntity(ctx context.Context, owner int64, entity EntityType, payload Payload) (*EntityReport, error) {
	records := payload.Records(entity)
	if records == nil {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidPayload, entity)
	}
	if err := s.checkLimit(len(records)); err != nil {
		return nil, err
	}

	var results []Result
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		results, err = s.reconcileAll(ctx, tx, entity, records, owner)
		return err
	})
	if err != nil {
		s.log.Error("entity sync rolled back",
			slog.String("entity", string(entity)),
			slog.Int64("owner", owner),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("sync %s: %w", entity, err)
	}

	created, updated, failed := countStatuses(results)
	s.log.Info("entity sync committed",
		slog.String("entity", string(entity)),
		slog.Int64("owner", owner),
		slog.Int("created", created),
		slog.Int("updated", updated),
		slog.Int("failed", failed),
	)

	return &EntityReport{
		Status:  "success",
		Created: created,
		Updated: updated,
		Failed:  failed,
		Results: results,
	}, nil
}

func (s *Service) reconcileAll(ctx context.Context, tx Tx, entity EntityType, records []Fields, owner int64) ([]Result, error) {
	results := make([]Result, 0, len(records))
	for _, fields := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.reconciler.Reconcile(ctx, tx, entity, fields, owner)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) checkLimit(n int) error {
	if s.config.MaxRecords > 0 && n > s.config.MaxRecords {
		return fmt.Errorf("%w: %d records exceed limit of %d", ErrInvalidPayload, n, s.config.MaxRecords)
	}
	return nil
}
