package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"farmsync/internal/app/server/config"
	"farmsync/internal/domain/farm"
	"farmsync/internal/domain/session"
	"farmsync/internal/domain/sync"
	"farmsync/internal/domain/user"
)

// newTestStorage подключается к TEST_DATABASE_URI, без нее тесты пропускаются
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	_, file, _, _ := runtime.Caller(0)
	migrations := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")

	cfg := &config.Config{}
	cfg.DB.DatabaseURI = uri
	cfg.DB.Migrations = migrations

	ctx := context.Background()
	storage, err := New(ctx, cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	_, err = storage.Pool().Exec(ctx,
		`TRUNCATE inspection_observations, observation_points, inspection_suggestions,
		          boundary_points, farms, sessions, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return storage
}

func createUser(t *testing.T, storage *Storage, email string) int64 {
	t.Helper()
	u := &user.User{Email: email, Name: "Test", Role: user.RoleFarmer, Password: "hash"}
	require.NoError(t, NewUserRepository(storage, slog.Default()).Create(context.Background(), u))
	return u.ID
}

func TestUserRepository(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewUserRepository(storage, slog.Default())
	ctx := context.Background()

	u := &user.User{Email: "farmer@example.com", Name: "Wanjiru", Role: user.RoleStakeholder, Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	assert.ErrorIs(t, repo.Create(ctx, &user.User{Email: u.Email, Name: "x", Role: user.RoleFarmer, Password: "h"}), user.ErrEmailTaken)

	found, err := repo.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStakeholder, found.Role)

	_, err = repo.FindByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestSessionRepository(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewSessionRepository(storage, slog.Default())
	ctx := context.Background()
	userID := createUser(t, storage, "s@example.com")

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, userID, "abcdef", now.Add(time.Hour)))

	got, err := repo.Validate(ctx, "abcdef", now)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = repo.Validate(ctx, "abcdef", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestSyncStore_RoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	owner := createUser(t, storage, "owner@example.com")
	other := createUser(t, storage, "other@example.com")

	svc := sync.NewService(NewSyncStore(storage, slog.Default()), slog.Default(), nil)

	report, err := svc.Sync(ctx, owner, sync.Payload{Farms: []sync.Fields{
		{"id": 1, "name": "North", "size": 3.5, "plant_type": "Maize"},
		{"id": 2, "name": "South"},
		{"id": 3, "name": "East", "size": 1.0, "plant_type": "Beans"},
	}})
	require.NoError(t, err)
	require.Len(t, report.Results.Farms, 3)
	assert.Equal(t, sync.StatusCreated, report.Results.Farms[0].Status)
	assert.Equal(t, sync.StatusFailed, report.Results.Farms[1].Status)
	assert.Equal(t, sync.StatusCreated, report.Results.Farms[2].Status)
	farmID := *report.Results.Farms[0].ServerID

	report, err = svc.Sync(ctx, owner, sync.Payload{
		ObservationPoints: []sync.Fields{
			{"id": 10, "farm_id": farmID, "latitude": 0.5, "longitude": 36.1, "segment": 1},
		},
		InspectionSuggestions: []sync.Fields{{
			"id": 20, "property_location": farmID, "target_entity": "Aphids",
			"confidence_level": "High", "area_size": 2.0, "density_of_plant": 4,
		}},
	})
	require.NoError(t, err)
	require.Equal(t, sync.StatusCreated, report.Results.InspectionSuggestions[0].Status)

	points, err := svc.PendingObservationPoints(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.NotNil(t, points[0].InspectionSuggestionID)
	assert.Equal(t, *report.Results.InspectionSuggestions[0].ServerID, *points[0].InspectionSuggestionID)
	assert.Equal(t, farm.SyncSynced, points[0].SyncStatus)

	report, err = svc.Sync(ctx, other, sync.Payload{Farms: []sync.Fields{
		{"id": 1, "name": "Stolen", "size": 1.0, "plant_type": "Maize"},
	}})
	require.NoError(t, err)
	assert.Equal(t, sync.StatusFailed, report.Results.Farms[0].Status)

	farms, err := svc.PendingFarms(ctx, other, "")
	require.NoError(t, err)
	assert.Empty(t, farms)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	farms, err = svc.PendingFarms(ctx, owner, future)
	require.NoError(t, err)
	assert.Empty(t, farms)
}

func TestSyncStore_MarkFailed(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	owner := createUser(t, storage, "owner@example.com")
	other := createUser(t, storage, "other@example.com")

	svc := sync.NewService(NewSyncStore(storage, slog.Default()), slog.Default(), nil)

	_, err := svc.Sync(ctx, owner, sync.Payload{Farms: []sync.Fields{
		{"id": 5, "name": "North", "size": 3.5, "plant_type": "Maize"},
	}})
	require.NoError(t, err)

	report, err := svc.Sync(ctx, other, sync.Payload{Farms: []sync.Fields{{"id": 5, "size": "large"}}})
	require.NoError(t, err)
	assert.Equal(t, sync.StatusFailed, report.Results.Farms[0].Status)

	farms, err := svc.PendingFarms(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, farms, 1)
	assert.Equal(t, farm.SyncSynced, farms[0].SyncStatus)

	report, err = svc.Sync(ctx, owner, sync.Payload{Farms: []sync.Fields{
		{"id": 5, "size": "large"},
		{"id": 6, "name": "South", "size": 1.0, "plant_type": "Beans"},
	}})
	require.NoError(t, err)
	assert.Equal(t, sync.StatusFailed, report.Results.Farms[0].Status)
	assert.Equal(t, sync.StatusCreated, report.Results.Farms[1].Status)

	farms, err = svc.PendingFarms(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, farms, 2)
	assert.Equal(t, farm.SyncFailed, farms[0].SyncStatus)
	assert.Equal(t, 3.5, farms[0].Size)
	assert.Equal(t, farm.SyncSynced, farms[1].SyncStatus)
}

func TestFarmRepository(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewFarmRepository(storage, slog.Default())
	ctx := context.Background()
	owner := createUser(t, storage, "crud@example.com")

	f := &farm.Farm{UserID: owner, Name: "Plot", Size: 2, PlantType: "Tea", SyncMeta: farm.SyncMeta{SyncStatus: farm.SyncPending}}
	require.NoError(t, repo.Create(ctx, f))

	got, err := repo.Get(ctx, owner, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plot", got.Name)

	_, err = repo.Get(ctx, owner+1, f.ID)
	assert.ErrorIs(t, err, farm.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, owner, f.ID))
	assert.ErrorIs(t, repo.Delete(ctx, owner, f.ID), farm.ErrNotFound)
}
