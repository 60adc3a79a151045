package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"farmsync/internal/app/client/config"
	"farmsync/internal/domain/sync"
	"farmsync/internal/domain/user"
)

var (
	ErrNotAuthenticated = errors.New("требуется вход: farmsync auth login")
	ErrEmptyPayload     = errors.New("файл не содержит записей")
)

// App клиент синхронизации для командной строки
type App struct {
	config   *config.Config
	log      *slog.Logger
	http     *httpClient
	state    *SQLiteState
	deviceID string
	now      func() time.Time
}

// PullResult итог получения изменений одной сущности
type PullResult struct {
	Entity    sync.EntityType
	Received  int
	Stored    int
	Watermark string
}

// Status сводка для команды status
type Status struct {
	Server        string
	ServerErr     error
	Email         string
	Authenticated bool
	DeviceID      string
	Watermarks    map[string]string
	LastPush      *PushEntry
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	state, err := NewSQLiteState(cfg.DataPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	deviceID, err := state.Setting(ctx, settingDeviceID)
	if err != nil {
		state.Close()
		return nil, err
	}
	if deviceID == "" {
		deviceID = uuid.NewString()
		if err := state.SetSetting(ctx, settingDeviceID, deviceID); err != nil {
			state.Close()
			return nil, err
		}
	}

	app := &App{
		config:   cfg,
		log:      log.With(slog.String("component", "client")),
		http:     newHTTPClient(cfg, deviceID, log),
		state:    state,
		deviceID: deviceID,
		now:      time.Now,
	}

	token, err := state.Setting(ctx, settingToken)
	if err != nil {
		state.Close()
		return nil, err
	}
	if token != "" {
		app.http.SetToken(token)
		app.log.Debug("token loaded from local state")
	}

	return app, nil
}

func (a *App) Close() error {
	return a.state.Close()
}

func (a *App) DeviceID() string {
	return a.deviceID
}

func (a *App) IsAuthenticated() bool {
	return a.http.token != ""
}

func (a *App) CheckConnection(ctx context.Context) error {
	return a.http.HealthCheck(ctx)
}

func (a *App) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	resp, err := a.http.Register(ctx, req)
	if err != nil {
		return user.User{}, err
	}
	return resp.User, a.remember(ctx, resp)
}

func (a *App) Login(ctx context.Context, email, password string) (user.User, error) {
	resp, err := a.http.Login(ctx, user.LoginRequest{Email: email, Password: password})
	if err != nil {
		return user.User{}, err
	}
	return resp.User, a.remember(ctx, resp)
}

func (a *App) Logout(ctx context.Context) error {
	a.http.SetToken("")
	return a.state.DeleteSetting(ctx, settingToken)
}

func (a *App) remember(ctx context.Context, resp AuthResponse) error {
	a.http.SetToken(resp.Token)
	if err := a.state.SetSetting(ctx, settingToken, resp.Token); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	return a.state.SetSetting(ctx, settingEmail, resp.User.Email)
}

// Push отправляет файл с пакетом синхронизации и записывает итог в историю
func (a *App) Push(ctx context.Context, path string) (*sync.Report, *PushEntry, error) {
	if !a.IsAuthenticated() {
		return nil, nil, ErrNotAuthenticated
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	payload, err := sync.DecodePayload(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	if payload.Len() == 0 {
		return nil, nil, ErrEmptyPayload
	}

	report, err := a.http.SyncData(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	entry := &PushEntry{File: filepath.Base(path), PushedAt: a.now().UTC()}
	for _, entity := range sync.Order {
		for _, r := range report.Results.Get(entity) {
			switch r.Status {
			case sync.StatusCreated:
				entry.Created++
			case sync.StatusUpdated:
				entry.Updated++
			case sync.StatusFailed:
				entry.Failed++
			}
		}
	}

	if err := a.state.RecordPush(ctx, entry); err != nil {
		a.log.Warn("push history not saved", slog.String("error", err.Error()))
	}

	return report, entry, nil
}

// Pull забирает изменения сущности после сохраненного водяного знака, all игнорирует знак
func (a *App) Pull(ctx context.Context, entity sync.EntityType, all bool) (*PullResult, error) {
	if !a.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	var lastSync string
	if !all {
		var err error
		if lastSync, err = a.state.Watermark(ctx, string(entity)); err != nil {
			return nil, err
		}
	}

	items, err := a.http.Pending(ctx, entity, lastSync)
	if err != nil {
		return nil, err
	}

	records := make([]PulledRecord, 0, len(items))
	var newest time.Time
	for _, raw := range items {
		var head struct {
			ID        int64     `json:"id"`
			UpdatedAt time.Time `json:"updated_at"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("ошибка разбора %s: %w", entity, err)
		}
		if head.UpdatedAt.After(newest) {
			newest = head.UpdatedAt
		}
		records = append(records, PulledRecord{ID: head.ID, UpdatedAt: head.UpdatedAt, Body: raw})
	}

	if err := a.state.SaveRecords(ctx, string(entity), records, newest); err != nil {
		return nil, err
	}

	stored, err := a.state.CountRecords(ctx, string(entity))
	if err != nil {
		return nil, err
	}

	watermark, err := a.state.Watermark(ctx, string(entity))
	if err != nil {
		return nil, err
	}

	a.log.Debug("pull complete",
		slog.String("entity", string(entity)),
		slog.Int("received", len(records)),
		slog.String("watermark", watermark),
	)

	return &PullResult{Entity: entity, Received: len(records), Stored: stored, Watermark: watermark}, nil
}

func (a *App) Status(ctx context.Context) (*Status, error) {
	email, err := a.state.Setting(ctx, settingEmail)
	if err != nil {
		return nil, err
	}
	watermarks, err := a.state.Watermarks(ctx)
	if err != nil {
		return nil, err
	}
	last, err := a.state.LastPush(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Server:        a.config.BaseURL(),
		ServerErr:     a.CheckConnection(ctx),
		Email:         email,
		Authenticated: a.IsAuthenticated(),
		DeviceID:      a.deviceID,
		Watermarks:    watermarks,
		LastPush:      last,
	}, nil
}
