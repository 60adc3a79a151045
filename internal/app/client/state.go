package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	settingToken    = "token"
	settingEmail    = "email"
	settingDeviceID = "device_id"
)

// PushEntry запись истории отправок
type PushEntry struct {
	ID       int64
	File     string
	PushedAt time.Time
	Created  int
	Updated  int
	Failed   int
}

// PulledRecord запись, полученная с сервера через pending_sync
type PulledRecord struct {
	ID        int64
	UpdatedAt time.Time
	Body      json.RawMessage
}

// SQLiteState локальное состояние клиента: токен, водяные знаки pull, история push
type SQLiteState struct {
	db *sql.DB
}

func NewSQLiteState(path string) (*SQLiteState, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	s := &SQLiteState{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return s, nil
}

func (s *SQLiteState) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS watermarks (
			entity TEXT PRIMARY KEY,
			last_sync TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pushes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file TEXT NOT NULL,
			pushed_at DATETIME NOT NULL,
			created INTEGER NOT NULL,
			updated INTEGER NOT NULL,
			failed INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			entity TEXT NOT NULL,
			id INTEGER NOT NULL,
			updated_at DATETIME NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY (entity, id)
		);
	`)
	return err
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}

// Setting возвращает пустую строку, если ключ не задан
func (s *SQLiteState) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteState) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteState) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

// Watermark пустая строка означает, что pull еще не выполнялся
func (s *SQLiteState) Watermark(ctx context.Context, entity string) (string, error) {
	var lastSync string
	err := s.db.QueryRowContext(ctx, `SELECT last_sync FROM watermarks WHERE entity = ?`, entity).Scan(&lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read watermark %s: %w", entity, err)
	}
	return lastSync, nil
}

func (s *SQLiteState) Watermarks(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity, last_sync FROM watermarks ORDER BY entity`)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var entity, lastSync string
		if err := rows.Scan(&entity, &lastSync); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}
		out[entity] = lastSync
	}
	return out, rows.Err()
}

// SaveRecords сохраняет полученные записи и сдвигает водяной знак в одной транзакции
func (s *SQLiteState) SaveRecords(ctx context.Context, entity string, records []PulledRecord, watermark time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (entity, id, updated_at, body) VALUES (?, ?, ?, ?)
			ON CONFLICT(entity, id) DO UPDATE SET updated_at = excluded.updated_at, body = excluded.body
		`, entity, r.ID, r.UpdatedAt.UTC(), string(r.Body))
		if err != nil {
			return fmt.Errorf("save %s %d: %w", entity, r.ID, err)
		}
	}

	if !watermark.IsZero() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO watermarks (entity, last_sync) VALUES (?, ?)
			ON CONFLICT(entity) DO UPDATE SET last_sync = excluded.last_sync
		`, entity, watermark.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("save watermark %s: %w", entity, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteState) CountRecords(ctx context.Context, entity string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE entity = ?`, entity).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}

func (s *SQLiteState) RecordPush(ctx context.Context, e *PushEntry) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pushes (file, pushed_at, created, updated, failed) VALUES (?, ?, ?, ?, ?)
	`, e.File, e.PushedAt.UTC(), e.Created, e.Updated, e.Failed)
	if err != nil {
		return fmt.Errorf("record push: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

// LastPush nil, если отправок еще не было
func (s *SQLiteState) LastPush(ctx context.Context) (*PushEntry, error) {
	var e PushEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file, pushed_at, created, updated, failed FROM pushes ORDER BY id DESC LIMIT 1
	`).Scan(&e.ID, &e.File, &e.PushedAt, &e.Created, &e.Updated, &e.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last push: %w", err)
	}
	return &e, nil
}
