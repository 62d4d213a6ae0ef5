package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"maison_back_end/internal/database"
)

const (
	// Limites par utilisateur et par minute
	OrderMaxRequests = 20
	APIMaxRequests   = 100

	APICooldown = 1 * time.Minute
)

// APIRateLimit limite le nombre de requêtes par utilisateur authentifié.
// Compteur Redis avec expiration glissante d'une minute.
func APIRateLimit(maxRequests int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next() // mode mémoire : pas de rate limit
			return
		}

		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		cntKey := fmt.Sprintf("api_rate:%s:%s", c.FullPath(), userID)

		count, err := database.Redis.Incr(ctx, cntKey).Result()
		if err != nil {
			c.Next() // Redis en panne ne doit pas bloquer l'API
			return
		}
		if count == 1 {
			database.Redis.Expire(ctx, cntKey, APICooldown)
		}

		if count > int64(maxRequests) {
			ttl := database.Redis.TTL(ctx, cntKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes, réessayez dans un instant",
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
