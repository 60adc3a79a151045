package farm

import "context"

// Repository хранилище ферм для обычных CRUD операций (без логики синхронизации)
type Repository interface {
	List(ctx context.Context, userID int64) ([]Farm, error)
	Get(ctx context.Context, userID, farmID int64) (*Farm, error)
	Create(ctx context.Context, farm *Farm) error
	Update(ctx context.Context, farm *Farm) error
	Delete(ctx context.Context, userID, farmID int64) error
}
