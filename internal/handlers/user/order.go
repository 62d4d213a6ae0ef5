package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
	"maison_back_end/internal/stock"
)

// OrderHandler : création de commandes et consultation de l'historique.
// La réservation de stock elle-même vit dans orders.Service.
type OrderHandler struct {
	Svc   *orders.Service
	Store orders.Store
}

func NewOrderHandler(svc *orders.Service, store orders.Store) *OrderHandler {
	return &OrderHandler{Svc: svc, Store: store}
}

// CreateOrder transforme le panier (ou des lignes explicites) en commande
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	var req struct {
		Items []models.CartItem `json:"items"` // Optionnel : sinon dérivé du panier
		Total float64           `json:"total"` // Optionnel : sinon recalculé
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	items := req.Items
	fromCart := false
	if len(items) == 0 {
		if h.Svc.Carts == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
			return
		}
		cartItems, err := h.Svc.Carts.Get(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
			return
		}
		if len(cartItems) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
			return
		}
		items = cartItems
		fromCart = true
	}

	order, err := h.Svc.CreateOrder(c.Request.Context(), userID, email, items, req.Total, fromCart)
	if err != nil {
		var shortage *orders.StockShortage
		switch {
		case errors.As(err, &shortage):
			c.JSON(http.StatusConflict, gin.H{
				"error":      "Stock insuffisant",
				"product":    shortage.ProductName,
				"product_id": shortage.ProductID,
				"available":  shortage.Available,
				"requested":  shortage.Requested,
			})
		case errors.Is(err, orders.ErrInvalidLineItem):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, stock.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande créée",
		"order":   order,
	})
}

// GetMyOrders récupère toutes les commandes de l'utilisateur connecté
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	list, err := h.Store.GetByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GetOrderByID récupère une commande spécifique par ID
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID := c.Param("id")

	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	order, err := h.Store.GetByID(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	// ✅ Sécurité : on vérifie que la commande appartient bien à l'utilisateur
	if order.UserID != userID && c.GetString("role") != "admin" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateStatus fait avancer le statut d'une commande (admin).
// La réponse inclut restock_note si l'annulation a fait un restock partiel.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	order, err := h.Svc.SetStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		case errors.Is(err, orders.ErrInvalidStatus), errors.Is(err, orders.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Échec de la mise à jour"})
		}
		return
	}

	resp := gin.H{
		"message": "Statut mis à jour",
		"order":   order,
	}
	if order.RestockNote != "" {
		resp["restock_note"] = order.RestockNote
	}
	c.JSON(http.StatusOK, resp)
}
