package orders

import (
	"context"
	"time"

	"maison_back_end/internal/models"
)

// Store est la persistance des commandes. Une commande n'est jamais
// supprimée, elle reste comme historique.
type Store interface {
	Insert(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	FindByProduct(ctx context.Context, productID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ClaimRestock bascule restocked de false à true de façon conditionnelle
	// et atomique. Retourne true pour exactement un appelant : c'est lui qui
	// exécute la boucle de restock, les autres ne recréditent rien.
	ClaimRestock(ctx context.Context, id string, at time.Time) (bool, error)

	// FinishRestock persiste ensemble le statut canceled et la note de
	// restock partiel éventuelle.
	FinishRestock(ctx context.Context, id string, status Status, note string) error

	SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error
}

// ProductCatalog est la consultation produits (lecture seule ici :
// toute écriture de stock passe par le Ledger).
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)

	// BatchStock retourne le stock courant d'un lot de produits en un seul
	// aller-retour. Les ids inconnus sont simplement absents de la map.
	BatchStock(ctx context.Context, ids []string) (map[string]int, error)
}

// CartStore est la persistance du panier (Redis en production)
type CartStore interface {
	Get(ctx context.Context, userID string) ([]models.CartItem, error)
	Replace(ctx context.Context, userID string, items []models.CartItem) error
	Clear(ctx context.Context, userID string) error
}

// PaymentProvider crée l'intention de paiement après la réservation.
// Best-effort : un échec n'annule jamais la commande.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, o *models.Order, email string) (string, error)
	Refund(ctx context.Context, o *models.Order) error
}

// Notifier envoie les emails de confirmation (best-effort, asynchrone)
type Notifier interface {
	OrderConfirmed(o models.Order, email string)
}
