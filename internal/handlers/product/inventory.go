package product

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"maison_back_end/internal/cache"
	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
	"maison_back_end/internal/stock"
)

// InventoryHandler : ajustement atomique du stock (admin) + audit.
// Le même Ledger que le checkout : un seul contrat d'écriture du compteur.
type InventoryHandler struct {
	Ledger    stock.Ledger
	Movements stock.MovementStore
	Catalog   orders.ProductCatalog
	Orders    orders.Store
	Cache     *cache.CachedCatalog // optionnel, pour invalider après ajustement
}

func NewInventoryHandler(ledger stock.Ledger, movements stock.MovementStore, catalog orders.ProductCatalog, ordersStore orders.Store) *InventoryHandler {
	return &InventoryHandler{Ledger: ledger, Movements: movements, Catalog: catalog, Orders: ordersStore}
}

// AdjustStock applique un delta signé sur le stock d'un produit.
// Un delta négatif n'est accepté que si le stock restant le permet :
// le stock ne passe jamais sous zéro, même avec des admins concurrents.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	productID := c.Param("id")

	var req struct {
		Delta  int    `json:"delta" binding:"required"`
		Reason string `json:"reason"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	newStock, err := h.Ledger.Adjust(c.Request.Context(), productID, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, stock.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		case errors.Is(err, stock.ErrInsufficientStock):
			available := 0
			if p, perr := h.Catalog.GetProduct(c.Request.Context(), productID); perr == nil {
				available = p.Stock
			}
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Stock insuffisant",
				"available": available,
				"requested": -req.Delta,
			})
		case errors.Is(err, stock.ErrInvalidDelta):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Le delta ne peut pas être nul"})
		default:
			log.Printf("❌ Erreur ajustement stock %s: %v", productID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour du stock"})
		}
		return
	}

	// Enregistrer le mouvement de stock (best-effort)
	movementType := "restock"
	if req.Delta < 0 {
		movementType = "adjustment"
	}
	movement := models.StockMovement{
		ProductID: productID,
		Type:      movementType,
		Quantity:  req.Delta,
		PrevStock: newStock - req.Delta,
		NewStock:  newStock,
		Reason:    req.Reason,
		UserID:    c.GetString("user_id"),
		CreatedAt: time.Now(),
	}
	if err := h.Movements.RecordMovement(c.Request.Context(), movement); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}

	if h.Cache != nil {
		h.Cache.Invalidate(c.Request.Context(), productID)
	}

	h.checkLowStockAlert(c, productID, newStock)

	log.Printf("✅ Stock ajusté pour %s: %d -> %d", productID, movement.PrevStock, newStock)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Stock mis à jour avec succès",
		"prev_stock": movement.PrevStock,
		"new_stock":  newStock,
	})
}

// GetStockMovements récupère l'historique des mouvements d'un produit
func (h *InventoryHandler) GetStockMovements(c *gin.Context) {
	productID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := h.Movements.Movements(c.Request.Context(), productID, limit)
	if err != nil {
		log.Printf("❌ Erreur récupération mouvements: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
		"total":     len(movements),
	})
}

// GetOrdersForProduct liste les commandes contenant ce produit (admin)
func (h *InventoryHandler) GetOrdersForProduct(c *gin.Context) {
	list, err := h.Orders.FindByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": list,
		"total":  len(list),
	})
}

// checkLowStockAlert logge une alerte si le stock passe sous le seuil
func (h *InventoryHandler) checkLowStockAlert(c *gin.Context, productID string, currentStock int) {
	p, err := h.Catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		return
	}

	threshold := p.LowStockThreshold
	if threshold == 0 {
		threshold = 10 // Seuil par défaut
	}

	if currentStock == 0 {
		log.Printf("🚨 Rupture de stock pour %s (%s)", p.Name, productID)
	} else if currentStock <= threshold {
		log.Printf("🚨 Stock faible pour %s (%s): %d restant(s)", p.Name, productID, currentStock)
	}
}
