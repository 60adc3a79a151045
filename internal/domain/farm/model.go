package farm

import "time"

// SyncStatus отражает результат последней синхронизации записи
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

const DefaultObservationStatus = "Nil"

// SyncMeta общие поля всех синхронизируемых сущностей
type SyncMeta struct {
	MobileID   *int64     `json:"mobile_id"`
	SyncStatus SyncStatus `json:"sync_status"`
	LastSynced *time.Time `json:"last_synced"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// MarkSynced помечает запись синхронизированной на момент at
func (m *SyncMeta) MarkSynced(at time.Time) {
	m.SyncStatus = SyncSynced
	m.LastSynced = &at
	m.UpdatedAt = at
}

// MarkFailed помечает запись, последняя синхронизация которой завершилась ошибкой
func (m *SyncMeta) MarkFailed() { m.SyncStatus = SyncFailed }

// Touch помечает запись измененной на сервере, клиентам нужно ее забрать
func (m *SyncMeta) Touch(at time.Time) {
	m.SyncStatus = SyncPending
	m.UpdatedAt = at
}

type Farm struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user"`
	Name      string  `json:"name"`
	Size      float64 `json:"size"`
	PlantType string  `json:"plant_type"`
	SyncMeta
}

type BoundaryPoint struct {
	ID          int64   `json:"id"`
	FarmID      int64   `json:"farm"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description *string `json:"description"`
	SyncMeta

	// OwnerID владелец фермы, заполняется при чтении
	OwnerID int64 `json:"-"`
}

type ObservationPoint struct {
	ID                     int64   `json:"id"`
	FarmID                 int64   `json:"farm"`
	Latitude               float64 `json:"latitude"`
	Longitude              float64 `json:"longitude"`
	ObservationStatus      string  `json:"observation_status"`
	Name                   *string `json:"name"`
	Segment                int     `json:"segment"`
	InspectionSuggestionID *int64  `json:"inspection_suggestion"`
	ConfidenceLevel        *string `json:"confidence_level"`
	TargetEntity           *string `json:"target_entity"`
	SyncMeta

	OwnerID int64 `json:"-"`
}

type InspectionSuggestion struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user"`
	FarmID          int64   `json:"property_location"`
	TargetEntity    string  `json:"target_entity"`
	ConfidenceLevel string  `json:"confidence_level"`
	AreaSize        float64 `json:"area_size"`
	DensityOfPlant  int     `json:"density_of_plant"`
	SyncMeta

	OwnerID int64 `json:"-"`
}

type InspectionObservation struct {
	ID                     int64     `json:"id"`
	UserID                 int64     `json:"user"`
	Date                   time.Time `json:"date"`
	InspectionSuggestionID int64     `json:"inspection"`
	FarmID                 int64     `json:"farm"`
	SectionID              *int64    `json:"section"`
	Confidence             string    `json:"confidence"`
	PlantPerSection        string    `json:"plant_per_section"`
	Status                 string    `json:"status"`
	TargetEntity           *string   `json:"target_entity"`
	Severity               *string   `json:"severity"`
	SyncMeta

	OwnerID int64 `json:"-"`
}
