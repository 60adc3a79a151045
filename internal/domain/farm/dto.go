package farm

// CreateRequest запрос на создание фермы
type CreateRequest struct {
	Name      string  `json:"name" minLength:"1" maxLength:"255"`
	Size      float64 `json:"size" minimum:"0"`
	PlantType string  `json:"plant_type" minLength:"1" maxLength:"255"`
}

// UpdateRequest частичное обновление фермы, nil поля не меняются
type UpdateRequest struct {
	Name      *string  `json:"name,omitempty" maxLength:"255"`
	Size      *float64 `json:"size,omitempty" minimum:"0"`
	PlantType *string  `json:"plant_type,omitempty" maxLength:"255"`
}

type ListResponse struct {
	Farms []Farm `json:"farms"`
	Total int    `json:"total"`
}
