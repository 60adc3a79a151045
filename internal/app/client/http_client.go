package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"farmsync/internal/app/client/config"
	"farmsync/internal/domain/sync"
	"farmsync/internal/domain/user"
)

// APIError ответ сервера в формате application/problem+json
type APIError struct {
	StatusCode int
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ошибка сервера (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("ошибка сервера: статус %d", e.StatusCode)
}

// AuthResponse ответ register и login
type AuthResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func newHTTPClient(cfg *config.Config, deviceID string, log *slog.Logger) *httpClient {
	return &httpClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		},
		log:       log,
		baseURL:   cfg.BaseURL(),
		userAgent: "farmsync-cli/1.0 (device " + deviceID + ")",
	}
}

func (h *httpClient) SetToken(token string) {
	h.token = token
}

func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.do(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) Register(ctx context.Context, req user.RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	if err := h.doJSON(ctx, http.MethodPost, "/api/v1/user/register", req, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

func (h *httpClient) Login(ctx context.Context, req user.LoginRequest) (AuthResponse, error) {
	var out AuthResponse
	if err := h.doJSON(ctx, http.MethodPost, "/api/v1/user/login", req, &out); err != nil {
		return AuthResponse{}, err
	}
	return out, nil
}

func (h *httpClient) Me(ctx context.Context) (user.User, error) {
	var out user.User
	if err := h.doJSON(ctx, http.MethodGet, "/api/v1/user/me", nil, &out); err != nil {
		return user.User{}, err
	}
	return out, nil
}

// SyncData отправляет пакет как есть, без повторной сериализации
func (h *httpClient) SyncData(ctx context.Context, payload []byte) (*sync.Report, error) {
	resp, err := h.do(ctx, http.MethodPost, "/api/v1/sync-data", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var report sync.Report
	if err := h.parseResponse(resp, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Pending запрашивает изменения сущности после lastSync, пустой lastSync - все записи
func (h *httpClient) Pending(ctx context.Context, entity sync.EntityType, lastSync string) ([]json.RawMessage, error) {
	path := "/api/v1/" + entityPath(entity) + "/pending_sync"
	if lastSync != "" {
		path += "?" + url.Values{"last_sync": {lastSync}}.Encode()
	}

	var out []json.RawMessage
	if err := h.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *httpClient) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := h.do(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, result)
}

func (h *httpClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("sending request", slog.String("method", method), slog.String("url", req.URL.String()))

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("response received", slog.Int("status", resp.StatusCode), slog.Int("bytes", len(body)))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}

func entityPath(entity sync.EntityType) string {
	return strings.ReplaceAll(string(entity), "_", "-")
}
