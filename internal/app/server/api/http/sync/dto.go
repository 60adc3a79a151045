package sync

import "farmsync/internal/domain/sync"

// syncInput тело читается как есть, разбор и ошибки 400 на стороне обработчика
type syncInput struct {
	RawBody []byte
}

type syncOutput struct {
	Body *sync.Report
}

type entityOutput struct {
	Body *sync.EntityReport
}

type pendingInput struct {
	LastSync string `query:"last_sync" example:"2025-05-14T12:00:00Z" doc:"Время последней синхронизации клиента, пусто - все записи"`
}

type pendingOutput[T any] struct {
	Body []T
}
