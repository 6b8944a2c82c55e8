package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-CourtBookingService/internal/domain"
)

// ErrSnapshotNotFound возвращается, когда снапшот отсутствует в кэше
var ErrSnapshotNotFound = errors.New("cache: snapshot not found")

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// SnapshotCache хранит сериализованные списки бронирований в Redis.
// Снапшот используется только для предзаполнения состояния до первого
// успешного запроса к БД и никогда не считается авторитетным после него.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    Logger
}

// NewSnapshotCache создает кэш снапшотов. client может быть nil -
// тогда все операции становятся no-op (graceful degradation).
func NewSnapshotCache(client *redis.Client, ttl time.Duration, log Logger) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// NewRedisClient создает клиент Redis с проверкой соединения.
// Возвращает nil при недоступности сервера - кэш деградирует в no-op.
func NewRedisClient(addr, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}

	return client
}

// Store сохраняет снапшот бронирований клуба на день
func (c *SnapshotCache) Store(ctx context.Context, clubID int64, day time.Time, bookings []*domain.Booking) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(bookings)
	if err != nil {
		c.log.Warn("SnapshotCache: failed to marshal bookings for club=%d: %v", clubID, err)
		return
	}

	if err := c.client.Set(ctx, snapshotKey(clubID, day), payload, c.ttl).Err(); err != nil {
		c.log.Warn("SnapshotCache: failed to store snapshot for club=%d: %v", clubID, err)
	}
}

// Load загружает снапшот бронирований клуба на день
func (c *SnapshotCache) Load(ctx context.Context, clubID int64, day time.Time) ([]*domain.Booking, error) {
	if c.client == nil {
		return nil, ErrSnapshotNotFound
	}

	payload, err := c.client.Get(ctx, snapshotKey(clubID, day)).Bytes()
	if err == redis.Nil {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: load snapshot: %w", err)
	}

	var bookings []*domain.Booking
	if err := json.Unmarshal(payload, &bookings); err != nil {
		return nil, fmt.Errorf("cache: unmarshal snapshot: %w", err)
	}

	return bookings, nil
}

func snapshotKey(clubID int64, day time.Time) string {
	return fmt.Sprintf("bookings:club:%d:date:%s", clubID, day.Format(domain.DateFormat))
}
