package sync

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"farmsync/internal/domain/farm"
)

// Записи клиента после разбора. Nil поле означает, что ключ не передан
// и при обновлении значение на сервере не меняется.

type farmRecord struct {
	Name      *string  `mapstructure:"name"`
	Size      *float64 `mapstructure:"size"`
	PlantType *string  `mapstructure:"plant_type"`
}

func (r farmRecord) missing() []string {
	return missingKeys(
		presence{"name", r.Name != nil},
		presence{"size", r.Size != nil},
		presence{"plant_type", r.PlantType != nil},
	)
}

func (r farmRecord) apply(f *farm.Farm) {
	setIf(&f.Name, r.Name)
	setIf(&f.Size, r.Size)
	setIf(&f.PlantType, r.PlantType)
}

type boundaryPointRecord struct {
	FarmID      *int64   `mapstructure:"farm_id"`
	Latitude    *float64 `mapstructure:"latitude"`
	Longitude   *float64 `mapstructure:"longitude"`
	Description *string  `mapstructure:"description"`
}

func (r boundaryPointRecord) missing() []string {
	return missingKeys(
		presence{"latitude", r.Latitude != nil},
		presence{"longitude", r.Longitude != nil},
	)
}

func (r boundaryPointRecord) apply(p *farm.BoundaryPoint) {
	setIf(&p.Latitude, r.Latitude)
	setIf(&p.Longitude, r.Longitude)
	if r.Description != nil {
		p.Description = r.Description
	}
}

type observationPointRecord struct {
	FarmID                 *int64   `mapstructure:"farm_id"`
	Latitude               *float64 `mapstructure:"latitude"`
	Longitude              *float64 `mapstructure:"longitude"`
	ObservationStatus      *string  `mapstructure:"observation_status"`
	Name                   *string  `mapstructure:"name"`
	Segment                *int     `mapstructure:"segment"`
	InspectionSuggestionID *int64   `mapstructure:"inspection_suggestion_id"`
	ConfidenceLevel        *string  `mapstructure:"confidence_level"`
	TargetEntity           *string  `mapstructure:"target_entity"`
}

func (r observationPointRecord) missing() []string {
	return missingKeys(
		presence{"latitude", r.Latitude != nil},
		presence{"longitude", r.Longitude != nil},
		presence{"segment", r.Segment != nil},
	)
}

func (r observationPointRecord) apply(p *farm.ObservationPoint) {
	setIf(&p.Latitude, r.Latitude)
	setIf(&p.Longitude, r.Longitude)
	setIf(&p.ObservationStatus, r.ObservationStatus)
	setIf(&p.Segment, r.Segment)
	if r.Name != nil {
		p.Name = r.Name
	}
	if r.ConfidenceLevel != nil {
		p.ConfidenceLevel = r.ConfidenceLevel
	}
	if r.TargetEntity != nil {
		p.TargetEntity = r.TargetEntity
	}
}

type suggestionRecord struct {
	TargetEntity     *string  `mapstructure:"target_entity"`
	ConfidenceLevel  *string  `mapstructure:"confidence_level"`
	PropertyLocation *int64   `mapstructure:"property_location"`
	AreaSize         *float64 `mapstructure:"area_size"`
	DensityOfPlant   *int     `mapstructure:"density_of_plant"`
}

func (r suggestionRecord) missing() []string {
	return missingKeys(
		presence{"target_entity", r.TargetEntity != nil},
		presence{"confidence_level", r.ConfidenceLevel != nil},
		presence{"area_size", r.AreaSize != nil},
		presence{"density_of_plant", r.DensityOfPlant != nil},
	)
}

func (r suggestionRecord) apply(s *farm.InspectionSuggestion) {
	setIf(&s.TargetEntity, r.TargetEntity)
	setIf(&s.ConfidenceLevel, r.ConfidenceLevel)
	setIf(&s.AreaSize, r.AreaSize)
	setIf(&s.DensityOfPlant, r.DensityOfPlant)
}

type observationRecord struct {
	Date            *time.Time `mapstructure:"date"`
	Inspection      *int64     `mapstructure:"inspection"`
	Farm            *int64     `mapstructure:"farm"`
	Section         *int64     `mapstructure:"section"`
	Confidence      *string    `mapstructure:"confidence"`
	PlantPerSection *string    `mapstructure:"plant_per_section"`
	Status          *string    `mapstructure:"status"`
	TargetEntity    *string    `mapstructure:"target_entity"`
	Severity        *string    `mapstructure:"severity"`
}

func (r observationRecord) missing() []string {
	return missingKeys(
		presence{"date", r.Date != nil},
		presence{"confidence", r.Confidence != nil},
		presence{"plant_per_section", r.PlantPerSection != nil},
		presence{"status", r.Status != nil},
	)
}

func (r observationRecord) apply(o *farm.InspectionObservation) {
	if r.Date != nil {
		o.Date = r.Date.UTC()
	}
	setIf(&o.Confidence, r.Confidence)
	setIf(&o.PlantPerSection, r.PlantPerSection)
	setIf(&o.Status, r.Status)
	if r.TargetEntity != nil {
		o.TargetEntity = r.TargetEntity
	}
	if r.Severity != nil {
		o.Severity = r.Severity
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type presence struct {
	key string
	set bool
}

func missingKeys(fields ...presence) []string {
	var missing []string
	for _, f := range fields {
		if !f.set {
			missing = append(missing, f.key)
		}
	}
	return missing
}

func requireFields(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
}

// decodeFields переносит разрешенные ключи записи в структуру out
func decodeFields(fields Fields, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: timestampHook,
		Result:     out,
	})
	if err != nil {
		return fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(fields)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

func timestampHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	return parseTimestamp(data.(string))
}

// MobileID идентификатор записи на устройстве, ключ "id"
func (f Fields) MobileID() (int64, error) {
	raw, ok := f["id"]
	if !ok || raw == nil {
		return 0, ErrMissingMobileID
	}

	switch v := raw.(type) {
	case json.Number:
		return parseMobileID(v.String())
	case string:
		return parseMobileID(strings.TrimSpace(v))
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: mobile id %v is not an integer", ErrInvalidRecord, v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("%w: mobile id has unsupported type %T", ErrInvalidRecord, raw)
}

func parseMobileID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: mobile id %q is not an integer", ErrInvalidRecord, s)
	}
	return id, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseTimestamp разбирает ISO 8601. Время без зоны считается UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}
