package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент сервиса инвентаря (захват номеров)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса инвентаря
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Hold захватывает номер на даты и возвращает lock_id
func (c *Client) Hold(ctx context.Context, token string, hold HoldRequest) (string, error) {
	body, err := json.Marshal(hold)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/holds", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to execute request: %w", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusConflict:
		return "", fmt.Errorf("%w: hotel_id=%s room_id=%s %s..%s", ErrUnavailable, hold.HotelID, hold.RoomID, hold.StartDate, hold.EndDate)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var out HoldResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if out.LockID == "" {
		return "", fmt.Errorf("%w: %w", ErrInvalidResponse, ErrEmptyLockID)
	}

	c.log.Info("Hold: room %s/%s locked, lock_id=%s", hold.HotelID, hold.RoomID, out.LockID)
	return out.LockID, nil
}

// Release освобождает захват
// Возвращает ErrLockNotFound, если захвата уже нет
func (c *Client) Release(ctx context.Context, token, lockID string) error {
	endpoint := fmt.Sprintf("%s/internal/holds/%s", c.baseURL, url.PathEscape(lockID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %w", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		c.log.Info("Release: lock_id=%s released", lockID)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: lock_id=%s", ErrLockNotFound, lockID)
	default:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}
}
