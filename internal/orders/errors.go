package orders

import (
	"errors"
	"fmt"

	"maison_back_end/internal/stock"
)

var (
	ErrOrderNotFound     = errors.New("commande introuvable")
	ErrInvalidLineItem   = errors.New("ligne de commande invalide")
	ErrInvalidStatus     = errors.New("statut inconnu")
	ErrInvalidTransition = errors.New("transition de statut interdite")
	ErrPersistence       = errors.New("échec de sauvegarde")
)

// StockShortage nomme le produit épuisé pour que le client puisse
// ajuster son panier. Se déballe en stock.ErrInsufficientStock.
type StockShortage struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func (e *StockShortage) Error() string {
	return fmt.Sprintf("stock insuffisant pour %q (%s): %d disponible(s), %d demandé(s)",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}

func (e *StockShortage) Unwrap() error { return stock.ErrInsufficientStock }
