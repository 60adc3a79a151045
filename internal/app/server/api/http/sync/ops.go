package sync

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"farmsync/internal/domain/sync"
)

// slug путь ресурса сущности: boundary_points -> boundary-points
func slug(entity sync.EntityType) string {
	return strings.ReplaceAll(string(entity), "_", "-")
}

func (h *Handler) syncDataOp() huma.Operation {
	return huma.Operation{
		OperationID:  "sync-data",
		Method:       http.MethodPost,
		Path:         "/api/v1/sync-data",
		Summary:      "Синхронизация данных мобильного клиента",
		Description:  "Принимает пакет ферм, точек границы, точек наблюдения, рекомендаций и наблюдений и сверяет его с сервером в одной транзакции.",
		Tags:         []string{"sync"},
		MaxBodyBytes: h.maxBodyBytes,
		Security:     []map[string][]string{{"bearer": {}}},
		Middlewares:  h.middleware,
	}
}

func (h *Handler) syncEntityOp(entity sync.EntityType) huma.Operation {
	return huma.Operation{
		OperationID:  fmt.Sprintf("%s-sync", slug(entity)),
		Method:       http.MethodPost,
		Path:         fmt.Sprintf("/api/v1/%s/sync", slug(entity)),
		Summary:      fmt.Sprintf("Синхронизация %s", entity),
		Description:  fmt.Sprintf("Тело запроса {\"%s\": [...]}, остальные ключи игнорируются.", entity),
		Tags:         []string{"sync"},
		MaxBodyBytes: h.maxBodyBytes,
		Security:     []map[string][]string{{"bearer": {}}},
		Middlewares:  h.middleware,
	}
}

func (h *Handler) pendingOp(entity sync.EntityType) huma.Operation {
	return huma.Operation{
		OperationID: fmt.Sprintf("%s-pending-sync", slug(entity)),
		Method:      http.MethodGet,
		Path:        fmt.Sprintf("/api/v1/%s/pending_sync", slug(entity)),
		Summary:     fmt.Sprintf("Изменения %s после last_sync", entity),
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
