package stock

import (
	"context"

	"maison_back_end/internal/models"
)

// Ledger est LE point d'écriture du compteur de stock. Personne d'autre
// n'a le droit de faire un read-then-write sur la colonne stock.
//
// Adjust applique un delta signé (jamais zéro) sur le stock d'un produit
// et retourne le stock résultant :
//   - delta < 0 : réussit seulement si stock >= |delta|, sinon
//     ErrInsufficientStock sans aucun effet de bord. Deux décréments
//     concurrents sur la dernière unité donnent exactement un succès.
//   - delta > 0 : incrément inconditionnel si le produit existe,
//     sinon ErrProductNotFound.
type Ledger interface {
	Adjust(ctx context.Context, productID string, delta int) (int, error)
}

// MovementStore enregistre l'historique des mouvements de stock (audit).
// L'écriture est best-effort : un échec d'audit ne bloque jamais l'ajustement.
type MovementStore interface {
	RecordMovement(ctx context.Context, m models.StockMovement) error
	Movements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error)
}
