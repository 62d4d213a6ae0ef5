package carts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"maison_back_end/internal/models"
)

const CartTTL = 30 * 24 * time.Hour // 30 jours

// RedisStore garde le panier complet en JSON sous cart:<userID>.
// Chaque mutation publie sur le canal cart:<userID> pour la synchro
// temps réel entre app et web.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func key(userID string) string { return "cart:" + userID }

func (s *RedisStore) Get(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := s.Client.Get(ctx, key(userID)).Result()
	if err == redis.Nil || data == "" {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("panier de %s illisible: %v", userID, err)
	}
	return items, nil
}

func (s *RedisStore) Replace(ctx context.Context, userID string, items []models.CartItem) error {
	pipe := s.Client.Pipeline()
	if len(items) == 0 {
		pipe.Del(ctx, key(userID))
	} else {
		data, err := json.Marshal(items)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key(userID), data, CartTTL)
	}
	pipe.Publish(ctx, key(userID), "updated")
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	pipe := s.Client.Pipeline()
	pipe.Del(ctx, key(userID))
	pipe.Publish(ctx, key(userID), "cleared")
	_, err := pipe.Exec(ctx)
	return err
}
