package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
)

const ProductCacheTTL = 10 * time.Minute

// CachedCatalog met les lectures produit en cache Redis. Le stock, lui,
// n'est JAMAIS servi depuis le cache : BatchStock passe toujours en direct,
// le compteur doit rester vrai pour le clamp côté panier.
type CachedCatalog struct {
	Inner orders.ProductCatalog
	Redis *redis.Client
}

func NewCachedCatalog(inner orders.ProductCatalog, client *redis.Client) *CachedCatalog {
	return &CachedCatalog{Inner: inner, Redis: client}
}

func (c *CachedCatalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := "product:" + id

	if data, err := c.Redis.Get(ctx, cacheKey).Result(); err == nil && data != "" {
		var p models.Product
		if json.Unmarshal([]byte(data), &p) == nil {
			return &p, nil
		}
	}

	p, err := c.Inner.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.Redis.Set(ctx, cacheKey, data, ProductCacheTTL).Err(); err != nil {
			log.Printf("⚠️ Cache produit %s non écrit: %v", id, err)
		}
	}
	return p, nil
}

func (c *CachedCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	cacheKey := "products:all"

	if data, err := c.Redis.Get(ctx, cacheKey).Result(); err == nil && data != "" {
		var products []models.Product
		if json.Unmarshal([]byte(data), &products) == nil {
			return products, nil
		}
	}

	products, err := c.Inner.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		c.Redis.Set(ctx, cacheKey, data, ProductCacheTTL)
	}
	return products, nil
}

// BatchStock : toujours en direct, voir le commentaire du type
func (c *CachedCatalog) BatchStock(ctx context.Context, ids []string) (map[string]int, error) {
	return c.Inner.BatchStock(ctx, ids)
}

// Invalidate purge un produit du cache (après un ajustement de stock admin)
func (c *CachedCatalog) Invalidate(ctx context.Context, id string) {
	if err := c.Redis.Del(ctx, "product:"+id, "products:all").Err(); err != nil {
		log.Printf("⚠️ Invalidation cache produit %s: %v", id, err)
	}
}
