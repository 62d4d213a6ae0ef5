package user

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
	"maison_back_end/internal/stock"
)

// CartHandler : endpoints panier. Fines passerelles vers le CartStore,
// avec deux règles serveur : la quantité est plafonnée au stock vivant,
// et les lignes mortes (produit disparu ou épuisé) sont élaguées à la lecture.
type CartHandler struct {
	Carts   orders.CartStore
	Catalog orders.ProductCatalog
}

func NewCartHandler(carts orders.CartStore, catalog orders.ProductCatalog) *CartHandler {
	return &CartHandler{Carts: carts, Catalog: catalog}
}

func calcTotal(items []models.CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (h *CartHandler) respondCart(c *gin.Context, items []models.CartItem) {
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": calcTotal(items),
		"count": len(items),
	})
}

// GetCart récupère le panier, élagué des produits morts
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	items, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	if len(items) == 0 {
		h.respondCart(c, items)
		return
	}

	// ✅ Un seul lookup batch pour tout le panier, jamais un appel par ligne
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	stocks, err := h.Catalog.BatchStock(c.Request.Context(), ids)
	if err != nil {
		log.Printf("⚠️ Lookup stock batch impossible pour %s: %v", userID, err)
		h.respondCart(c, items) // panier servi tel quel, pas d'élagage
		return
	}

	// Élagage côté serveur : produit disparu ou stock épuisé
	pruned := make([]models.CartItem, 0, len(items))
	changed := false
	for _, it := range items {
		st, ok := stocks[it.ProductID]
		if !ok || st == 0 {
			changed = true
			continue
		}
		if it.Quantity > st {
			it.Quantity = st
			changed = true
		}
		pruned = append(pruned, it)
	}

	if changed {
		if err := h.Carts.Replace(c.Request.Context(), userID, pruned); err != nil {
			log.Printf("⚠️ Panier élagué non sauvegardé pour %s: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  pruned,
		"total":  calcTotal(pruned),
		"count":  len(pruned),
		"stocks": stocks,
	})
}

// AddToCart ajoute un produit au panier
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	p, err := h.Catalog.GetProduct(c.Request.Context(), input.ProductID)
	if err != nil {
		if errors.Is(err, stock.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if p.Stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"product":   p.Name,
			"available": p.Stock,
			"requested": input.Quantity,
		})
		return
	}

	items, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	found := false
	for i := range items {
		if items[i].ProductID == input.ProductID {
			newQuantity := items[i].Quantity + input.Quantity
			if newQuantity > p.Stock {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "Stock insuffisant pour cette quantité",
					"product":   p.Name,
					"available": p.Stock,
				})
				return
			}
			items[i].Quantity = newQuantity
			found = true
			break
		}
	}
	if !found {
		items = append(items, models.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  input.Quantity,
			ImageURL:  p.ImageURL(),
		})
	}

	if err := h.Carts.Replace(c.Request.Context(), userID, items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"items":   items,
		"total":   calcTotal(items),
		"count":   len(items),
	})
}

// UpdateQuantity remplace la quantité d'une ligne (0 = suppression).
// La quantité est plafonnée au stock vivant du produit.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	productID := c.Param("productId")

	var input struct {
		Quantity *int `json:"quantity" binding:"required,min=0"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}
	quantity := *input.Quantity

	items, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil || len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Panier vide"})
		return
	}

	// Plafonner au stock vivant (produit disparu = ligne supprimée)
	capped := false
	if quantity > 0 {
		if p, err := h.Catalog.GetProduct(c.Request.Context(), productID); err == nil {
			if quantity > p.Stock {
				quantity = p.Stock
				capped = true
			}
		} else if errors.Is(err, stock.ErrProductNotFound) {
			quantity = 0
		}
	}

	newItems := make([]models.CartItem, 0, len(items))
	found := false
	for i := range items {
		if items[i].ProductID == productID {
			found = true
			if quantity > 0 {
				items[i].Quantity = quantity
				newItems = append(newItems, items[i])
			}
			// quantity = 0 : on ne garde pas la ligne
		} else {
			newItems = append(newItems, items[i])
		}
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable dans le panier"})
		return
	}

	if err := h.Carts.Replace(c.Request.Context(), userID, newItems); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Quantité mise à jour",
		"quantity": quantity,
		"capped":   capped,
		"items":    newItems,
		"total":    calcTotal(newItems),
		"count":    len(newItems),
	})
}

// RemoveFromCart supprime une ligne du panier
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	productID := c.Param("productId")

	items, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil || len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Panier vide"})
		return
	}

	newItems := make([]models.CartItem, 0, len(items))
	found := false
	for _, item := range items {
		if item.ProductID != productID {
			newItems = append(newItems, item)
		} else {
			found = true
		}
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé dans le panier"})
		return
	}

	if err := h.Carts.Replace(c.Request.Context(), userID, newItems); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit supprimé du panier",
		"items":   newItems,
		"total":   calcTotal(newItems),
		"count":   len(newItems),
	})
}

// ClearCart vide le panier
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	if err := h.Carts.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Panier vidé avec succès",
		"items":   []models.CartItem{},
		"total":   0,
		"count":   0,
	})
}
