package user

import (
	"context"
)

type Repository interface {
	// Create сохраняет пользователя и заполняет ID и CreatedAt.
	// Занятый email возвращает ErrEmailTaken.
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}
