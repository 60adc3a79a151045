package sync

import (
	"bytes"
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"farmsync/internal/app/server/api/http/middleware/auth"
	"farmsync/internal/domain/sync"
)

// entitySync сущности с отдельным эндпоинтом /sync
var entitySync = []sync.EntityType{
	sync.EntityFarms,
	sync.EntityBoundaryPoints,
	sync.EntityObservationPoints,
	sync.EntityInspectionSuggestions,
}

type Handler struct {
	service      sync.Servicer
	log          *slog.Logger
	middleware   huma.Middlewares
	maxBodyBytes int64
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares, maxBodyBytes int64) *Handler {
	return &Handler{
		service:      service,
		log:          log.With(slog.String("component", "sync_handler")),
		middleware:   middleware,
		maxBodyBytes: maxBodyBytes,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.syncDataOp(), h.syncData)

	for _, entity := range entitySync {
		huma.Register(api, h.syncEntityOp(entity), h.syncEntity(entity))
	}

	registerPending(api, h, sync.EntityFarms, h.service.PendingFarms)
	registerPending(api, h, sync.EntityBoundaryPoints, h.service.PendingBoundaryPoints)
	registerPending(api, h, sync.EntityObservationPoints, h.service.PendingObservationPoints)
	registerPending(api, h, sync.EntityInspectionSuggestions, h.service.PendingInspectionSuggestions)
	registerPending(api, h, sync.EntityInspectionObservations, h.service.PendingInspectionObservations)
}

func (h *Handler) syncData(ctx context.Context, input *syncInput) (*syncOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	payload, err := sync.DecodePayload(bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, h.error(err)
	}

	report, err := h.service.Sync(ctx, userID, payload)
	if err != nil {
		return nil, h.error(err)
	}

	return &syncOutput{Body: report}, nil
}

func (h *Handler) syncEntity(entity sync.EntityType) func(context.Context, *syncInput) (*entityOutput, error) {
	return func(ctx context.Context, input *syncInput) (*entityOutput, error) {
		userID, ok := auth.GetUserID(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}

		payload, err := sync.DecodePayload(bytes.NewReader(input.RawBody))
		if err != nil {
			return nil, h.error(err)
		}

		report, err := h.service.SyncEntity(ctx, userID, entity, payload)
		if err != nil {
			return nil, h.error(err)
		}

		return &entityOutput{Body: report}, nil
	}
}

type pendingFunc[T any] func(ctx context.Context, owner int64, lastSync string) ([]T, error)

func registerPending[T any](api huma.API, h *Handler, entity sync.EntityType, fetch pendingFunc[T]) {
	huma.Register(api, h.pendingOp(entity), func(ctx context.Context, input *pendingInput) (*pendingOutput[T], error) {
		userID, ok := auth.GetUserID(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}

		items, err := fetch(ctx, userID, input.LastSync)
		if err != nil {
			return nil, h.error(err)
		}

		return &pendingOutput[T]{Body: items}, nil
	})
}

func (h *Handler) error(err error) error {
	if errors.Is(err, sync.ErrInvalidPayload) || errors.Is(err, sync.ErrInvalidWatermark) {
		return huma.Error400BadRequest(err.Error())
	}

	h.log.Error("sync request failed", slog.String("error", err.Error()))
	return huma.Error500InternalServerError("sync failed, no changes were applied")
}
