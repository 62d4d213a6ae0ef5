package product

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"maison_back_end/internal/orders"
	"maison_back_end/internal/stock"
)

// Handler : consultation du catalogue produits
type Handler struct {
	Catalog orders.ProductCatalog
}

func NewHandler(catalog orders.ProductCatalog) *Handler {
	return &Handler{Catalog: catalog}
}

func (h *Handler) GetAllProducts(c *gin.Context) {
	products, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération produits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    len(products),
	})
}

func (h *Handler) GetProductByID(c *gin.Context) {
	p, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, stock.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// BatchStock retourne le stock courant d'un lot de produits en un appel.
// C'est le point de rafraîchissement du client panier : un appel par vue,
// quel que soit le nombre de lignes.
func (h *Handler) BatchStock(c *gin.Context) {
	var req struct {
		ProductIDs []string `json:"product_ids" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	stocks, err := h.Catalog.BatchStock(c.Request.Context(), req.ProductIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": stocks})
}
