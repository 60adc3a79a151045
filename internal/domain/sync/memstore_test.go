package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"farmsync/internal/domain/farm"
)

// memStore is an in-memory Store. Transactions and record scopes work on
// copies of the state, so rollbacks behave like the postgres implementation.
type memStore struct {
	state     memState
	scopeErr  error
	commitErr error
	// createErrs makes Create* fail for the given mobile ids, as a concurrent
	// insert of the same mobile id would.
	createErrs map[int64]error
}

type memState struct {
	nextID       int64
	farms        map[int64]farm.Farm
	boundary     map[int64]farm.BoundaryPoint
	points       map[int64]farm.ObservationPoint
	suggestions  map[int64]farm.InspectionSuggestion
	observations map[int64]farm.InspectionObservation
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		farms:        map[int64]farm.Farm{},
		boundary:     map[int64]farm.BoundaryPoint{},
		points:       map[int64]farm.ObservationPoint{},
		suggestions:  map[int64]farm.InspectionSuggestion{},
		observations: map[int64]farm.InspectionObservation{},
	}}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s memState) clone() memState {
	return memState{
		nextID:       s.nextID,
		farms:        cloneMap(s.farms),
		boundary:     cloneMap(s.boundary),
		points:       cloneMap(s.points),
		suggestions:  cloneMap(s.suggestions),
		observations: cloneMap(s.observations),
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memState) ownerOf(farmID int64) int64 {
	return s.farms[farmID].UserID
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	work := m.state.clone()
	tx := &memTx{state: &work, scopeErr: m.scopeErr, createErrs: m.createErrs}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if m.commitErr != nil {
		return m.commitErr
	}
	m.state = work
	return nil
}

func sortedByID[V any](m map[int64]V, keep func(V) bool) []V {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func changed(meta farm.SyncMeta, since *time.Time) bool {
	return since == nil || meta.UpdatedAt.After(*since)
}

func (m *memStore) FarmsChangedSince(_ context.Context, owner int64, since *time.Time) ([]farm.Farm, error) {
	return sortedByID(m.state.farms, func(f farm.Farm) bool {
		return f.UserID == owner && changed(f.SyncMeta, since)
	}), nil
}

func (m *memStore) BoundaryPointsChangedSince(_ context.Context, owner int64, since *time.Time) ([]farm.BoundaryPoint, error) {
	return sortedByID(m.state.boundary, func(p farm.BoundaryPoint) bool {
		return m.state.ownerOf(p.FarmID) == owner && changed(p.SyncMeta, since)
	}), nil
}

func (m *memStore) ObservationPointsChangedSince(_ context.Context, owner int64, since *time.Time) ([]farm.ObservationPoint, error) {
	return sortedByID(m.state.points, func(p farm.ObservationPoint) bool {
		return m.state.ownerOf(p.FarmID) == owner && changed(p.SyncMeta, since)
	}), nil
}

func (m *memStore) InspectionSuggestionsChangedSince(_ context.Context, owner int64, since *time.Time) ([]farm.InspectionSuggestion, error) {
	return sortedByID(m.state.suggestions, func(s farm.InspectionSuggestion) bool {
		return m.state.ownerOf(s.FarmID) == owner && changed(s.SyncMeta, since)
	}), nil
}

func (m *memStore) InspectionObservationsChangedSince(_ context.Context, owner int64, since *time.Time) ([]farm.InspectionObservation, error) {
	return sortedByID(m.state.observations, func(o farm.InspectionObservation) bool {
		return m.state.ownerOf(o.FarmID) == owner && changed(o.SyncMeta, since)
	}), nil
}

type memTx struct {
	state      *memState
	scopeErr   error
	createErrs map[int64]error
}

func (t *memTx) createErr(mobileID *int64) error {
	if mobileID == nil {
		return nil
	}
	return t.createErrs[*mobileID]
}

func (t *memTx) RecordScope(_ context.Context, fn func(tx Tx) error) error {
	if t.scopeErr != nil {
		return fmt.Errorf("%w: %v", ErrScope, t.scopeErr)
	}
	snapshot := t.state.clone()
	if err := fn(t); err != nil {
		*t.state = snapshot
		return err
	}
	return nil
}

func mobileTaken[V any](m map[int64]V, meta func(V) farm.SyncMeta, mobileID *int64) error {
	if mobileID == nil {
		return nil
	}
	for _, v := range m {
		if id := meta(v).MobileID; id != nil && *id == *mobileID {
			return farm.ErrMobileIDTaken
		}
	}
	return nil
}

func findByMobile[V any](m map[int64]V, meta func(V) farm.SyncMeta, mobileID int64) *V {
	for _, v := range m {
		if id := meta(v).MobileID; id != nil && *id == mobileID {
			return &v
		}
	}
	return nil
}

func (t *memTx) FarmByID(_ context.Context, owner, id int64) (*farm.Farm, error) {
	f, ok := t.state.farms[id]
	if !ok || f.UserID != owner {
		return nil, farm.ErrNotFound
	}
	return &f, nil
}

func (t *memTx) FarmByMobileID(_ context.Context, mobileID int64) (*farm.Farm, error) {
	return findByMobile(t.state.farms, func(f farm.Farm) farm.SyncMeta { return f.SyncMeta }, mobileID), nil
}

func (t *memTx) CreateFarm(_ context.Context, f *farm.Farm) error {
	if err := t.createErr(f.MobileID); err != nil {
		return err
	}
	if err := mobileTaken(t.state.farms, func(f farm.Farm) farm.SyncMeta { return f.SyncMeta }, f.MobileID); err != nil {
		return err
	}
	f.ID = t.state.id()
	t.state.farms[f.ID] = *f
	return nil
}

func (t *memTx) UpdateFarm(_ context.Context, f *farm.Farm) error {
	t.state.farms[f.ID] = *f
	return nil
}

func (t *memTx) BoundaryPointByID(_ context.Context, owner, id int64) (*farm.BoundaryPoint, error) {
	p, ok := t.state.boundary[id]
	if !ok || t.state.ownerOf(p.FarmID) != owner {
		return nil, farm.ErrSectionNotFound
	}
	p.OwnerID = owner
	return &p, nil
}

func (t *memTx) BoundaryPointByMobileID(_ context.Context, mobileID int64) (*farm.BoundaryPoint, error) {
	p := findByMobile(t.state.boundary, func(p farm.BoundaryPoint) farm.SyncMeta { return p.SyncMeta }, mobileID)
	if p != nil {
		p.OwnerID = t.state.ownerOf(p.FarmID)
	}
	return p, nil
}

func (t *memTx) CreateBoundaryPoint(_ context.Context, p *farm.BoundaryPoint) error {
	if err := t.createErr(p.MobileID); err != nil {
		return err
	}
	if err := mobileTaken(t.state.boundary, func(p farm.BoundaryPoint) farm.SyncMeta { return p.SyncMeta }, p.MobileID); err != nil {
		return err
	}
	p.ID = t.state.id()
	t.state.boundary[p.ID] = *p
	return nil
}

func (t *memTx) UpdateBoundaryPoint(_ context.Context, p *farm.BoundaryPoint) error {
	t.state.boundary[p.ID] = *p
	return nil
}

func (t *memTx) ObservationPointByMobileID(_ context.Context, mobileID int64) (*farm.ObservationPoint, error) {
	p := findByMobile(t.state.points, func(p farm.ObservationPoint) farm.SyncMeta { return p.SyncMeta }, mobileID)
	if p != nil {
		p.OwnerID = t.state.ownerOf(p.FarmID)
	}
	return p, nil
}

func (t *memTx) CreateObservationPoint(_ context.Context, p *farm.ObservationPoint) error {
	if err := t.createErr(p.MobileID); err != nil {
		return err
	}
	if err := mobileTaken(t.state.points, func(p farm.ObservationPoint) farm.SyncMeta { return p.SyncMeta }, p.MobileID); err != nil {
		return err
	}
	p.ID = t.state.id()
	t.state.points[p.ID] = *p
	return nil
}

func (t *memTx) UpdateObservationPoint(_ context.Context, p *farm.ObservationPoint) error {
	t.state.points[p.ID] = *p
	return nil
}

func (t *memTx) InspectionSuggestionByID(_ context.Context, owner, id int64) (*farm.InspectionSuggestion, error) {
	s, ok := t.state.suggestions[id]
	if !ok || t.state.ownerOf(s.FarmID) != owner {
		return nil, farm.ErrSuggestionNotFound
	}
	s.OwnerID = owner
	return &s, nil
}

func (t *memTx) InspectionSuggestionByMobileID(_ context.Context, mobileID int64) (*farm.InspectionSuggestion, error) {
	s := findByMobile(t.state.suggestions, func(s farm.InspectionSuggestion) farm.SyncMeta { return s.SyncMeta }, mobileID)
	if s != nil {
		s.OwnerID = t.state.ownerOf(s.FarmID)
	}
	return s, nil
}

func (t *memTx) CreateInspectionSuggestion(_ context.Context, s *farm.InspectionSuggestion) error {
	if err := t.createErr(s.MobileID); err != nil {
		return err
	}
	if err := mobileTaken(t.state.suggestions, func(s farm.InspectionSuggestion) farm.SyncMeta { return s.SyncMeta }, s.MobileID); err != nil {
		return err
	}
	s.ID = t.state.id()
	t.state.suggestions[s.ID] = *s
	return nil
}

func (t *memTx) UpdateInspectionSuggestion(_ context.Context, s *farm.InspectionSuggestion) error {
	t.state.suggestions[s.ID] = *s
	return nil
}

func (t *memTx) PropagateSuggestion(_ context.Context, s *farm.InspectionSuggestion, at time.Time) (int64, error) {
	var n int64
	for id, p := range t.state.points {
		if p.FarmID != s.FarmID {
			continue
		}
		suggestionID := s.ID
		target, confidence := s.TargetEntity, s.ConfidenceLevel
		p.InspectionSuggestionID = &suggestionID
		p.TargetEntity = &target
		p.ConfidenceLevel = &confidence
		p.MarkSynced(at)
		t.state.points[id] = p
		n++
	}
	return n, nil
}

func (t *memTx) InspectionObservationByMobileID(_ context.Context, mobileID int64) (*farm.InspectionObservation, error) {
	o := findByMobile(t.state.observations, func(o farm.InspectionObservation) farm.SyncMeta { return o.SyncMeta }, mobileID)
	if o != nil {
		o.OwnerID = t.state.ownerOf(o.FarmID)
	}
	return o, nil
}

func (t *memTx) CreateInspectionObservation(_ context.Context, o *farm.InspectionObservation) error {
	if err := t.createErr(o.MobileID); err != nil {
		return err
	}
	if err := mobileTaken(t.state.observations, func(o farm.InspectionObservation) farm.SyncMeta { return o.SyncMeta }, o.MobileID); err != nil {
		return err
	}
	o.ID = t.state.id()
	t.state.observations[o.ID] = *o
	return nil
}

func (t *memTx) UpdateInspectionObservation(_ context.Context, o *farm.InspectionObservation) error {
	t.state.observations[o.ID] = *o
	return nil
}

func stampFailed[V any](m map[int64]V, mobileID, owner int64, meta func(*V) *farm.SyncMeta, ownerOf func(V) int64) bool {
	for id, v := range m {
		sm := meta(&v)
		if sm.MobileID == nil || *sm.MobileID != mobileID || ownerOf(v) != owner {
			continue
		}
		sm.MarkFailed()
		m[id] = v
		return true
	}
	return false
}

func (t *memTx) MarkFailed(_ context.Context, entity EntityType, mobileID, owner int64) (bool, error) {
	switch entity {
	case EntityFarms:
		return stampFailed(t.state.farms, mobileID, owner,
			func(f *farm.Farm) *farm.SyncMeta { return &f.SyncMeta },
			func(f farm.Farm) int64 { return f.UserID }), nil
	case EntityBoundaryPoints:
		return stampFailed(t.state.boundary, mobileID, owner,
			func(p *farm.BoundaryPoint) *farm.SyncMeta { return &p.SyncMeta },
			func(p farm.BoundaryPoint) int64 { return t.state.ownerOf(p.FarmID) }), nil
	case EntityObservationPoints:
		return stampFailed(t.state.points, mobileID, owner,
			func(p *farm.ObservationPoint) *farm.SyncMeta { return &p.SyncMeta },
			func(p farm.ObservationPoint) int64 { return t.state.ownerOf(p.FarmID) }), nil
	case EntityInspectionSuggestions:
		return stampFailed(t.state.suggestions, mobileID, owner,
			func(s *farm.InspectionSuggestion) *farm.SyncMeta { return &s.SyncMeta },
			func(s farm.InspectionSuggestion) int64 { return t.state.ownerOf(s.FarmID) }), nil
	case EntityInspectionObservations:
		return stampFailed(t.state.observations, mobileID, owner,
			func(o *farm.InspectionObservation) *farm.SyncMeta { return &o.SyncMeta },
			func(o farm.InspectionObservation) int64 { return t.state.ownerOf(o.FarmID) }), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}
