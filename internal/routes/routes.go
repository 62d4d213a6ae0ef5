package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"maison_back_end/internal/handlers/product"
	"maison_back_end/internal/handlers/user"
	"maison_back_end/internal/middleware"
)

// Handlers regroupe les handlers injectés au démarrage
type Handlers struct {
	Cart      *user.CartHandler
	Order     *user.OrderHandler
	Product   *product.Handler
	Inventory *product.InventoryHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// --- Public : catalogue ---
	api.GET("/products", h.Product.GetAllProducts)
	api.GET("/products/:id", h.Product.GetProductByID)

	// --- Authentifié ---
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		// Panier
		auth.GET("/cart", h.Cart.GetCart)
		auth.POST("/cart", h.Cart.AddToCart)
		auth.PATCH("/cart/:productId", h.Cart.UpdateQuantity)
		auth.DELETE("/cart/:productId", h.Cart.RemoveFromCart)
		auth.DELETE("/cart", h.Cart.ClearCart)

		// Rafraîchissement batch du stock pour la vue panier
		auth.POST("/products/stock-batch", h.Product.BatchStock)

		// Commandes
		auth.POST("/orders", middleware.APIRateLimit(middleware.OrderMaxRequests), h.Order.CreateOrder)
		auth.GET("/orders", h.Order.GetMyOrders)
		auth.GET("/orders/:id", h.Order.GetOrderByID)
	}

	// --- Admin ---
	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.PATCH("/orders/:id/status", h.Order.UpdateStatus)
		admin.POST("/products/:id/stock", h.Inventory.AdjustStock)
		admin.GET("/products/:id/movements", h.Inventory.GetStockMovements)
		admin.GET("/products/:id/orders", h.Inventory.GetOrdersForProduct)
	}
}
