package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Fields слабо типизированная запись клиента, как она пришла в JSON
type Fields map[string]any

// Payload тело запроса синхронизации
type Payload struct {
	Farms                  []Fields `json:"farms"`
	BoundaryPoints         []Fields `json:"boundary_points"`
	ObservationPoints      []Fields `json:"observation_points"`
	InspectionSuggestions  []Fields `json:"inspection_suggestions"`
	InspectionObservations []Fields `json:"inspection_observations"`
}

// DecodePayload разбирает тело запроса. Числа остаются json.Number,
// чтобы идентификаторы не теряли точность.
func DecodePayload(r io.Reader) (Payload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Payload{}, fmt.Errorf("%w: empty body", ErrInvalidPayload)
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("%w: unexpected data after payload", ErrInvalidPayload)
	}

	return p, nil
}

func (p Payload) Records(entity EntityType) []Fields {
	switch entity {
	case EntityFarms:
		return p.Farms
	case EntityBoundaryPoints:
		return p.BoundaryPoints
	case EntityObservationPoints:
		return p.ObservationPoints
	case EntityInspectionSuggestions:
		return p.InspectionSuggestions
	case EntityInspectionObservations:
		return p.InspectionObservations
	}
	return nil
}

func (p Payload) Len() int {
	var n int
	for _, e := range Order {
		n += len(p.Records(e))
	}
	return n
}

// Results итоги по каждому типу сущности, все ключи присутствуют всегда
type Results struct {
	Farms                  []Result `json:"farms"`
	BoundaryPoints         []Result `json:"boundary_points"`
	ObservationPoints      []Result `json:"observation_points"`
	InspectionSuggestions  []Result `json:"inspection_suggestions"`
	InspectionObservations []Result `json:"inspection_observations"`
}

func newResults() Results {
	return Results{
		Farms:                  []Result{},
		BoundaryPoints:         []Result{},
		ObservationPoints:      []Result{},
		InspectionSuggestions:  []Result{},
		InspectionObservations: []Result{},
	}
}

func (r *Results) set(entity EntityType, results []Result) {
	switch entity {
	case EntityFarms:
		r.Farms = results
	case EntityBoundaryPoints:
		r.BoundaryPoints = results
	case EntityObservationPoints:
		r.ObservationPoints = results
	case EntityInspectionSuggestions:
		r.InspectionSuggestions = results
	case EntityInspectionObservations:
		r.InspectionObservations = results
	}
}

func (r Results) Get(entity EntityType) []Result {
	switch entity {
	case EntityFarms:
		return r.Farms
	case EntityBoundaryPoints:
		return r.BoundaryPoints
	case EntityObservationPoints:
		return r.ObservationPoints
	case EntityInspectionSuggestions:
		return r.InspectionSuggestions
	case EntityInspectionObservations:
		return r.InspectionObservations
	}
	return nil
}

// Report ответ на полную синхронизацию
type Report struct {
	Status    string    `json:"status" example:"success"`
	Timestamp time.Time `json:"timestamp"`
	Results   Results   `json:"results"`
}

// EntityReport ответ на синхронизацию одного типа сущности
type EntityReport struct {
	Status  string   `json:"status" example:"success"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

func countStatuses(results []Result) (created, updated, failed int) {
	for _, r := range results {
		switch r.Status {
		case StatusCreated:
			created++
		case StatusUpdated:
			updated++
		case StatusFailed:
			failed++
		}
	}
	return created, updated, failed
}
