package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iudanet/mealsync/pkg/api"
)

// TokenFunc возвращает access token для авторизации запросов
type TokenFunc func(ctx context.Context) (string, error)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	tokenFn    TokenFunc
	baseURL    string
}

// NewClient создает новый API клиент
// tokenFn может быть nil для неавторизованных запросов
func NewClient(baseURL string, tokenFn TokenFunc) *Client {
	return &Client{
		baseURL: baseURL,
		tokenFn: tokenFn,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Upsert creates or replaces a record by primary key
func (c *Client) Upsert(ctx context.Context, record *api.Record) (*api.Record, error) {
	var resp api.Record
	path := fmt.Sprintf("/api/v1/records/%s", url.PathEscape(record.EntityType))
	if err := c.doRequest(ctx, http.MethodPost, path, record, &resp); err != nil {
		return nil, fmt.Errorf("upsert request failed: %w", err)
	}
	return &resp, nil
}

// Update applies a partial update to a record
func (c *Client) Update(ctx context.Context, entityType, id string, patch *api.Patch) (*api.Record, error) {
	var resp api.Record
	path := fmt.Sprintf("/api/v1/records/%s/%s", url.PathEscape(entityType), url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodPatch, path, patch, &resp); err != nil {
		return nil, fmt.Errorf("update request failed: %w", err)
	}
	return &resp, nil
}

// Get reads a single record
func (c *Client) Get(ctx context.Context, entityType, id string) (*api.Record, error) {
	var resp api.Record
	path := fmt.Sprintf("/api/v1/records/%s/%s", url.PathEscape(entityType), url.PathEscape(id))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get request failed: %w", err)
	}
	return &resp, nil
}

// SelectAll bulk-reads all non-deleted records of a type within a household
func (c *Client) SelectAll(ctx context.Context, entityType, householdID string) ([]*api.Record, error) {
	var resp []*api.Record
	path := fmt.Sprintf("/api/v1/records/%s?household_id=%s",
		url.PathEscape(entityType), url.QueryEscape(householdID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("select all request failed: %w", err)
	}
	return resp, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokenFn != nil {
		token, err := c.tokenFn(ctx)
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
