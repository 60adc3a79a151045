package sync

import (
	"fmt"
	"time"
)

// EntityType ключ сущности в пакете синхронизации
type EntityType string

const (
	EntityFarms                  EntityType = "farms"
	EntityBoundaryPoints         EntityType = "boundary_points"
	EntityObservationPoints      EntityType = "observation_points"
	EntityInspectionSuggestions  EntityType = "inspection_suggestions"
	EntityInspectionObservations EntityType = "inspection_observations"
)

// Order порядок обработки сущностей: родители раньше детей
var Order = []EntityType{
	EntityFarms,
	EntityBoundaryPoints,
	EntityObservationPoints,
	EntityInspectionSuggestions,
	EntityInspectionObservations,
}

func ParseEntityType(s string) (EntityType, error) {
	for _, e := range Order {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

type ResultStatus string

const (
	StatusCreated ResultStatus = "created"
	StatusUpdated ResultStatus = "updated"
	StatusFailed  ResultStatus = "failed"
)

// Result итог сверки одной клиентской записи
type Result struct {
	MobileID *int64       `json:"mobile_id"`
	ServerID *int64       `json:"server_id,omitempty"`
	Status   ResultStatus `json:"status" enum:"created,updated,failed"`
	Message  string       `json:"message,omitempty"`
}

// ServiceConfig конфигурация сервиса синхронизации
type ServiceConfig struct {
	// AllowReparent разрешает переносить дочернюю запись на другую ферму при обновлении
	AllowReparent bool
	// MaxRecords максимум записей в одном пакете, 0 без ограничения
	MaxRecords int
}

func defaultConfig() *ServiceConfig {
	return &ServiceConfig{MaxRecords: 5000}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
