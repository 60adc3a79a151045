package sync

import "errors"

var (
	ErrInvalidPayload   = errors.New("invalid sync payload")
	ErrInvalidWatermark = errors.New("invalid last_sync format, use ISO format (YYYY-MM-DDTHH:MM:SS.sssZ)")
	ErrUnknownEntity    = errors.New("unknown entity type")

	ErrMissingMobileID = errors.New("missing mobile id")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrMissingField    = errors.New("missing required field")
	ErrForeignRecord   = errors.New("record belongs to another user")
	ErrReparent        = errors.New("record is attached to a different farm")

	// ErrScope ошибка самой точки сохранения, а не записи: прерывает весь пакет
	ErrScope = errors.New("record scope failed")
)
