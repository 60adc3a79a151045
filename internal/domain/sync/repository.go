package sync

import (
	"context"
	"time"

	"farmsync/internal/domain/farm"
)

// Store хранилище сущностей с поддержкой транзакций
type Store interface {
	// WithinTx выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ChangeReader
}

// ChangeReader выборка записей владельца, измененных после since.
// since == nil означает все записи. Результат упорядочен по id.
type ChangeReader interface {
	FarmsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.Farm, error)
	BoundaryPointsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.BoundaryPoint, error)
	ObservationPointsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.ObservationPoint, error)
	InspectionSuggestionsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.InspectionSuggestion, error)
	InspectionObservationsChangedSince(ctx context.Context, owner int64, since *time.Time) ([]farm.InspectionObservation, error)
}

// Tx операции над сущностями внутри транзакции пакета.
//
// Методы *ByMobileID ищут среди записей всех пользователей и возвращают
// (nil, nil), если записи нет. Методы *ByID ищут только среди записей owner
// и возвращают доменную ошибку not found.
type Tx interface {
	// RecordScope изолирует изменения одной записи: ошибка fn отменяет только их,
	// транзакция пакета остается рабочей. Сбой самой изоляции оборачивается в ErrScope.
	RecordScope(ctx context.Context, fn func(tx Tx) error) error

	// MarkFailed ставит статус failed записи entity с данным mobile id, если она
	// принадлежит owner. Возвращает false, если такой записи нет.
	MarkFailed(ctx context.Context, entity EntityType, mobileID, owner int64) (bool, error)

	FarmByID(ctx context.Context, owner, id int64) (*farm.Farm, error)
	FarmByMobileID(ctx context.Context, mobileID int64) (*farm.Farm, error)
	CreateFarm(ctx context.Context, f *farm.Farm) error
	UpdateFarm(ctx context.Context, f *farm.Farm) error

	BoundaryPointByID(ctx context.Context, owner, id int64) (*farm.BoundaryPoint, error)
	BoundaryPointByMobileID(ctx context.Context, mobileID int64) (*farm.BoundaryPoint, error)
	CreateBoundaryPoint(ctx context.Context, p *farm.BoundaryPoint) error
	UpdateBoundaryPoint(ctx context.Context, p *farm.BoundaryPoint) error

	ObservationPointByMobileID(ctx context.Context, mobileID int64) (*farm.ObservationPoint, error)
	CreateObservationPoint(ctx context.Context, p *farm.ObservationPoint) error
	UpdateObservationPoint(ctx context.Context, p *farm.ObservationPoint) error

	InspectionSuggestionByID(ctx context.Context, owner, id int64) (*farm.InspectionSuggestion, error)
	InspectionSuggestionByMobileID(ctx context.Context, mobileID int64) (*farm.InspectionSuggestion, error)
	CreateInspectionSuggestion(ctx context.Context, s *farm.InspectionSuggestion) error
	UpdateInspectionSuggestion(ctx context.Context, s *farm.InspectionSuggestion) error
	// PropagateSuggestion переносит рекомендацию на все точки наблюдения ее фермы
	// и помечает их синхронизированными на момент at. Возвращает число точек.
	PropagateSuggestion(ctx context.Context, s *farm.InspectionSuggestion, at time.Time) (int64, error)

	InspectionObservationByMobileID(ctx context.Context, mobileID int64) (*farm.InspectionObservation, error)
	CreateInspectionObservation(ctx context.Context, o *farm.InspectionObservation) error
	UpdateInspectionObservation(ctx context.Context, o *farm.InspectionObservation) error
}
