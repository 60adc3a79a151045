package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"farmsync/internal/app/server/api/http/middleware/auth"
	"farmsync/internal/domain/session"
	"farmsync/internal/domain/user"
)

type Handler struct {
	service        user.Servicer
	session        session.Servicer
	log            *slog.Logger
	middleware     huma.Middlewares
	authMiddleware huma.Middlewares
}

// NewHandler принимает отдельный набор middleware для операций под авторизацией
func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, public, private huma.Middlewares) *Handler {
	return &Handler{
		service:        service,
		session:        session,
		log:            log.With(slog.String("component", "user_handler")),
		middleware:     public,
		authMiddleware: private,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.meOp(), h.me)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*authOutput, error) {
	u, err := h.service.Register(ctx, input.Body)
	if err != nil {
		return nil, h.error(err)
	}

	return h.issue(ctx, u)
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*authOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, h.error(err)
	}

	return h.issue(ctx, u)
}

func (h *Handler) me(ctx context.Context, _ *struct{}) (*meOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	u, err := h.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}
		return nil, h.error(err)
	}

	return &meOutput{Body: u}, nil
}

func (h *Handler) issue(ctx context.Context, u user.User) (*authOutput, error) {
	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session", slog.Int64("user_id", u.ID), slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("create session failed")
	}

	return &authOutput{
		Body: AuthResponse{Token: token, User: u},
	}, nil
}

func (h *Handler) error(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		return huma.Error409Conflict(user.ErrEmailTaken.Error())
	case errors.Is(err, user.ErrInvalidAuth):
		return huma.Error401Unauthorized(user.ErrInvalidAuth.Error())
	}

	h.log.Error("user request failed", slog.String("error", err.Error()))
	return huma.Error500InternalServerError("internal error")
}
