package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"maison_back_end/internal/cache"
	"maison_back_end/internal/carts"
	"maison_back_end/internal/config"
	"maison_back_end/internal/database"
	"maison_back_end/internal/handlers/product"
	"maison_back_end/internal/handlers/user"
	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
	"maison_back_end/internal/payments"
	"maison_back_end/internal/routes"
	"maison_back_end/internal/stock"
	"maison_back_end/internal/storage/memory"
	"maison_back_end/internal/storage/scylladb"
	"maison_back_end/internal/utils"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key != "" {
		log.Println("✅ Stripe initialisé")
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY absent, paiements désactivés")
	}

	var (
		ledger     stock.Ledger
		movements  stock.MovementStore
		catalog    orders.ProductCatalog
		orderStore orders.Store
		cartStore  orders.CartStore
		prodCache  *cache.CachedCatalog
	)

	if config.Get("STORAGE_DRIVER", "scylla") == "memory" {
		// Mode dev : tout en mémoire, aucune dépendance externe
		log.Println("⚠️ STORAGE_DRIVER=memory, données volatiles (mode dev)")
		mem := memory.NewDriver()
		seedDemoProducts(mem)
		ledger, movements, catalog, orderStore, cartStore = mem, mem, mem, mem, mem
	} else {
		database.ConnectDatabases()
		ledger = scylladb.NewLedger()
		movements = scylladb.NewLedger()
		orderStore = scylladb.NewOrderStore()
		cartStore = carts.NewRedisStore(database.Redis)

		// Lectures catalogue via le cache Redis ; le stock reste en direct
		prodCache = cache.NewCachedCatalog(scylladb.NewCatalog(), database.Redis)
		catalog = prodCache
	}

	svc := &orders.Service{
		Ledger:  ledger,
		Catalog: catalog,
		Store:   orderStore,
		Carts:   cartStore,
	}
	if payments.Configured() {
		svc.Payments = payments.NewStripeProvider()
	}
	if utils.Configured() {
		svc.Notifier = utils.NewSMTPNotifier()
	}

	inventory := product.NewInventoryHandler(ledger, movements, catalog, orderStore)
	inventory.Cache = prodCache

	r := gin.Default()
	routes.RegisterRoutes(r, routes.Handlers{
		Cart:      user.NewCartHandler(cartStore, catalog),
		Order:     user.NewOrderHandler(svc, orderStore),
		Product:   product.NewHandler(catalog),
		Inventory: inventory,
	})

	port := config.Get("PORT", "8080")
	log.Println("🚀 Serveur Maison lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Serveur arrêté:", err)
	}
}

// seedDemoProducts remplit le catalogue en mode mémoire
func seedDemoProducts(mem *memory.Driver) {
	demo := []models.Product{
		{Name: "Bougie cire d'abeille", Price: 18.50, Stock: 25, SKU: "MAI-001", IsActive: true},
		{Name: "Savon au lait d'ânesse", Price: 7.90, Stock: 40, SKU: "MAI-002", IsActive: true},
		{Name: "Plaid en laine", Price: 64.00, Stock: 5, SKU: "MAI-003", LowStockThreshold: 8, IsActive: true},
	}
	for _, p := range demo {
		seeded := mem.SeedProduct(p)
		log.Printf("🛒 Produit démo: %s (%s, stock %d)", seeded.Name, seeded.ID, seeded.Stock)
	}
}
