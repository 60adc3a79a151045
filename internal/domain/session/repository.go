package session

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidSession = errors.New("invalid session")

type Repository interface {
	Create(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// Validate возвращает владельца действующей сессии или ErrInvalidSession
	Validate(ctx context.Context, tokenHash string, now time.Time) (int64, error)
}
