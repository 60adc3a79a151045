package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	List(ctx context.Context, userID int64) (ListResponse, error)
	Find(ctx context.Context, userID, farmID int64) (*Farm, error)
	Create(ctx context.Context, userID int64, req CreateRequest) (*Farm, error)
	Update(ctx context.Context, userID, farmID int64, req UpdateRequest) (*Farm, error)
	Delete(ctx context.Context, userID, farmID int64) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "farm_service")),
		now:  time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID int64) (ListResponse, error) {
	farms, err := s.repo.List(ctx, userID)
	if err != nil {
		s.log.Error("failed to list farms", "user_id", userID, "error", err)
		return ListResponse{}, fmt.Errorf("list farms: %w", err)
	}
	if farms == nil {
		farms = []Farm{}
	}

	return ListResponse{Farms: farms, Total: len(farms)}, nil
}

func (s *Service) Find(ctx context.Context, userID, farmID int64) (*Farm, error) {
	f, err := s.repo.Get(ctx, userID, farmID)
	if err != nil {
		return nil, fmt.Errorf("find farm %d: %w", farmID, err)
	}
	return f, nil
}

// Create создает ферму вне синхронизации: mobile_id пустой, статус pending
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (*Farm, error) {
	if err := validateFarm(req.Name, req.Size, req.PlantType); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	f := &Farm{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Size:      req.Size,
		PlantType: strings.TrimSpace(req.PlantType),
		SyncMeta: SyncMeta{
			SyncStatus: SyncPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.log.Error("failed to create farm", "user_id", userID, "error", err)
		return nil, fmt.Errorf("create farm: %w", err)
	}

	s.log.Debug("farm created", "user_id", userID, "farm_id", f.ID)
	return f, nil
}

func (s *Service) Update(ctx context.Context, userID, farmID int64, req UpdateRequest) (*Farm, error) {
	f, err := s.repo.Get(ctx, userID, farmID)
	if err != nil {
		return nil, fmt.Errorf("find farm %d: %w", farmID, err)
	}

	if req.Name != nil {
		f.Name = strings.TrimSpace(*req.Name)
	}
	if req.Size != nil {
		f.Size = *req.Size
	}
	if req.PlantType != nil {
		f.PlantType = strings.TrimSpace(*req.PlantType)
	}
	if err := validateFarm(f.Name, f.Size, f.PlantType); err != nil {
		return nil, err
	}

	f.Touch(s.now().UTC())
	if err := s.repo.Update(ctx, f); err != nil {
		s.log.Error("failed to update farm", "user_id", userID, "farm_id", farmID, "error", err)
		return nil, fmt.Errorf("update farm: %w", err)
	}

	return f, nil
}

func (s *Service) Delete(ctx context.Context, userID, farmID int64) error {
	if err := s.repo.Delete(ctx, userID, farmID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to delete farm", "user_id", userID, "farm_id", farmID, "error", err)
		}
		return fmt.Errorf("delete farm %d: %w", farmID, err)
	}
	return nil
}

func validateFarm(name string, size float64, plantType string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case strings.TrimSpace(plantType) == "":
		return fmt.Errorf("%w: plant_type is required", ErrInvalidInput)
	case size < 0:
		return fmt.Errorf("%w: size must not be negative", ErrInvalidInput)
	}
	return nil
}
