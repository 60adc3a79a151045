// POST /api/v1/user/register                 # Регистрация (публичный)
// POST /api/v1/user/login                    # Логин (публичный)
// GET  /api/v1/user/me                       # Текущий пользователь (auth)
// GET  /api/v1/health                        # Проверка БД (публичный)
// POST /api/v1/sync-data                     # Полная синхронизация мобильного клиента (auth)
// POST /api/v1/{entity}/sync                 # Синхронизация одного типа сущности (auth)
// GET  /api/v1/{entity}/pending_sync         # Изменения после last_sync (auth)
// GET/POST /api/v1/farms, GET/PUT/DELETE /api/v1/farms/{id} # Фермы (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	"farmsync/internal/app/server/api/http/farm"
	"farmsync/internal/app/server/api/http/health"
	"farmsync/internal/app/server/api/http/middleware"
	"farmsync/internal/app/server/api/http/middleware/auth"
	"farmsync/internal/app/server/api/http/middleware/logger"
	syncAPI "farmsync/internal/app/server/api/http/sync"
	userAPI "farmsync/internal/app/server/api/http/user"
	"farmsync/internal/app/server/config"
	farmDomain "farmsync/internal/domain/farm"
	"farmsync/internal/domain/session"
	"farmsync/internal/domain/sync"
	"farmsync/internal/domain/user"
	"farmsync/internal/infrastructure/storage/postgres"
)

type Handlers struct {
	Health *health.Handler
	User   *userAPI.Handler
	Farm   *farm.Handler
	Sync   *syncAPI.Handler
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Use(chimw.Recoverer)

	humaConfig := huma.DefaultConfig("Farmsync API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h := handlers(storage, cfg, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Farm.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *Handlers {
	sessionRepo := postgres.NewSessionRepository(storage, log)
	sessionService := session.NewService(sessionRepo, log, cfg.Session.TTL)
	authMW := auth.New(sessionService, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := health.NewHandler(storage, log, middlewares.GetAllAndClear())

	userRepo := postgres.NewUserRepository(storage, log)
	userService := user.NewService(userRepo, user.NewPasswordValidator(), log)
	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	userHandler := userAPI.NewHandler(userService, sessionService, log, public, middlewares.GetAllAndClear())

	farmRepo := postgres.NewFarmRepository(storage, log)
	farmService := farmDomain.NewService(farmRepo, log)
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	farmHandler := farm.NewHandler(farmService, log, middlewares.GetAllAndClear())

	syncStore := postgres.NewSyncStore(storage, log)
	syncService := sync.NewService(syncStore, log, &sync.ServiceConfig{
		AllowReparent: cfg.Sync.AllowReparent,
		MaxRecords:    cfg.Sync.MaxRecords,
	})
	middlewares.Add(loggerMW.Middleware(), authMW.Middleware())
	syncHandler := syncAPI.NewHandler(syncService, log, middlewares.GetAllAndClear(), cfg.Sync.MaxBodyBytes)

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Farm:   farmHandler,
		Sync:   syncHandler,
	}
}
