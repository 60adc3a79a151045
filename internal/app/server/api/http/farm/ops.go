package farm

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "farms-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/farms",
		Summary:     "Список ферм пользователя",
		Tags:        []string{"farms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "farms-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/farms",
		Summary:       "Создать ферму",
		Description:   "Ферма создается со статусом pending и попадает в pending_sync мобильных клиентов.",
		Tags:          []string{"farms"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "farms-find",
		Method:      http.MethodGet,
		Path:        "/api/v1/farms/{id}",
		Summary:     "Получить ферму",
		Tags:        []string{"farms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "farms-update",
		Method:      http.MethodPut,
		Path:        "/api/v1/farms/{id}",
		Summary:     "Обновить ферму",
		Tags:        []string{"farms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "farms-delete",
		Method:      http.MethodDelete,
		Path:        "/api/v1/farms/{id}",
		Summary:     "Удалить ферму",
		Description: "Удаляет ферму вместе с точками границы, точками наблюдения и рекомендациями.",
		Tags:        []string{"farms"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
