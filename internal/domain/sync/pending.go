package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmsync/internal/domain/farm"
)

// ParseWatermark разбирает last_sync. Пустая строка означает "все записи" (nil).
func ParseWatermark(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	raw = restoreOffsetSign(raw)

	t, err := parseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWatermark, raw)
	}
	return &t, nil
}

// restoreOffsetSign возвращает '+' смещения, который query string превращает в пробел.
// Смещением считается хвост "HH", "HHMM" или "HH:MM" после даты со временем.
func restoreOffsetSign(raw string) string {
	i := strings.LastIndexByte(raw, ' ')
	if i < 0 || !isOffset(raw[i+1:]) {
		return raw
	}
	if !strings.ContainsAny(raw[:i], "T ") {
		return raw
	}
	return raw[:i] + "+" + raw[i+1:]
}

func isOffset(s string) bool {
	switch len(s) {
	case 2, 4:
		return isDigits(s)
	case 5:
		return s[2] == ':' && isDigits(s[:2]) && isDigits(s[3:])
	}
	return false
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func pending[T any](lastSync string, fetch func(since *time.Time) ([]T, error)) ([]T, error) {
	since, err := ParseWatermark(lastSync)
	if err != nil {
		return nil, err
	}

	items, err := fetch(since)
	if err != nil {
		return nil, fmt.Errorf("pending changes: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *Service) PendingFarms(ctx context.Context, owner int64, lastSync string) ([]farm.Farm, error) {
	return pending(lastSync, func(since *time.Time) ([]farm.Farm, error) {
		return s.store.FarmsChangedSince(ctx, owner, since)
	})
}

func (s *Service) PendingBoundaryPoints(ctx context.Context, owner int64, lastSync string) ([]farm.BoundaryPoint, error) {
	return pending(lastSync, func(since *time.Time) ([]farm.BoundaryPoint, error) {
		return s.store.BoundaryPointsChangedSince(ctx, owner, since)
	})
}

func (s *Service) PendingObservationPoints(ctx context.Context, owner int64, lastSync string) ([]farm.ObservationPoint, error) {
	return pending(lastSync, func(since *time.Time) ([]farm.ObservationPoint, error) {
		return s.store.ObservationPointsChangedSince(ctx, owner, since)
	})
}

func (s *Service) PendingInspectionSuggestions(ctx context.Context, owner int64, lastSync string) ([]farm.InspectionSuggestion, error) {
	return pending(lastSync, func(since *time.Time) ([]farm.InspectionSuggestion, error) {
		return s.store.InspectionSuggestionsChangedSince(ctx, owner, since)
	})
}

func (s *Service) PendingInspectionObservations(ctx context.Context, owner int64, lastSync string) ([]farm.InspectionObservation, error) {
	return pending(lastSync, func(since *time.Time) ([]farm.InspectionObservation, error) {
		return s.store.InspectionObservationsChangedSince(ctx, owner, since)
	})
}
