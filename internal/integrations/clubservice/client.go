package clubservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с ClubService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger

	// Последние успешно полученные клубы для graceful degradation
	mu       sync.RWMutex
	lastSeen map[int64]*Club
}

// NewClient создает новый экземпляр клиента ClubService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:      log,
		lastSeen: make(map[int64]*Club),
	}
}

// GetClub получает клуб со списком кортов и рабочими часами
func (c *Client) GetClub(ctx context.Context, clubID int64) (*Club, error) {
	url := fmt.Sprintf("%s/internal/clubs/%d", c.baseURL, clubID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid club ID format", ErrInvalidResponse)
	case http.StatusNotFound:
		return nil, ErrClubNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	// Парсим ответ
	var club Club
	if err := json.NewDecoder(resp.Body).Decode(&club); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.remember(&club)

	return &club, nil
}

// GetClubWithGracefulDegradation получает клуб с graceful degradation.
// При недоступности ClubService возвращает последнюю успешно полученную
// копию клуба, если она есть, иначе ErrServiceDegraded.
func (c *Client) GetClubWithGracefulDegradation(ctx context.Context, clubID int64) (*Club, error) {
	club, err := c.GetClub(ctx, clubID)
	if err != nil {
		// Критичная бизнес-ошибка пробрасывается дальше
		if err == ErrClubNotFound {
			return nil, err
		}

		c.mu.RLock()
		cached, ok := c.lastSeen[clubID]
		c.mu.RUnlock()

		if ok {
			c.log.Warn("ClubService unavailable, serving last known club id=%d: %v", clubID, err)
			return cached, nil
		}

		c.log.Error("ClubService unavailable and no cached club id=%d: %v", clubID, err)
		return nil, fmt.Errorf("%w: club_id=%d, error=%v", ErrServiceDegraded, clubID, err)
	}

	return club, nil
}

func (c *Client) remember(club *Club) {
	c.mu.Lock()
	c.lastSeen[club.ID] = club
	c.mu.Unlock()
}
