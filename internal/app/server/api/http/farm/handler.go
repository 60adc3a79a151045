package farm

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"farmsync/internal/app/server/api/http/middleware/auth"
	"farmsync/internal/domain/farm"
)

type Handler struct {
	service    farm.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service farm.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With(slog.String("component", "farm_handler")),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	farms, err := h.service.List(ctx, userID)
	if err != nil {
		return nil, h.error(err)
	}

	return &listOutput{Body: farms}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	f, err := h.service.Find(ctx, userID, input.ID)
	if err != nil {
		return nil, h.error(err)
	}

	return &output{Body: f}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	f, err := h.service.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, h.error(err)
	}

	return &output{Body: f}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	f, err := h.service.Update(ctx, userID, input.ID, input.Body)
	if err != nil {
		return nil, h.error(err)
	}

	return &output{Body: f}, nil
}

func (h *Handler) delete(ctx context.Context, input *findInput) (*struct{}, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Delete(ctx, userID, input.ID); err != nil {
		return nil, h.error(err)
	}

	return nil, nil
}

func (h *Handler) error(err error) error {
	switch {
	case errors.Is(err, farm.ErrNotFound):
		return huma.Error404NotFound(farm.ErrNotFound.Error())
	case errors.Is(err, farm.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	}

	h.log.Error("farm request failed", slog.String("error", err.Error()))
	return huma.Error500InternalServerError("internal error")
}
