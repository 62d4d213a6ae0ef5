package orders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"maison_back_end/internal/models"
)

// SetStatus fait avancer une commande dans son cycle de vie.
//
// Seule la transition vers canceled a un effet de bord : le restock.
// Il est exactement-une-fois au niveau de la commande, quel que soit le
// nombre de demandes d'annulation répétées ou concurrentes : le flag
// restocked est réclamé par une écriture conditionnelle persistée AVANT
// la boucle de recrédit, donc un seul appelant exécute la boucle.
func (s *Service) SetStatus(ctx context.Context, orderID, rawStatus string) (*models.Order, error) {
	st, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, rawStatus)
	}

	order, err := s.Store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	current := Status(order.Status)
	if current == st {
		// Re-demander le statut courant est un no-op idempotent :
		// une deuxième annulation ne recrédite rien.
		return order, nil
	}
	if !CanTransition(current, st) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, st)
	}

	if st != StatusCanceled {
		if err := s.Store.UpdateStatus(ctx, orderID, st); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return s.Store.GetByID(ctx, orderID)
	}

	return s.cancel(ctx, order)
}

// cancel annule la commande et recrédite le stock de chaque ligne.
//
// Le restock est best-effort par ligne : un produit supprimé du catalogue
// ne bloque pas l'annulation, l'échec est accumulé dans une note lisible
// par les opérateurs et la commande passe quand même à canceled.
func (s *Service) cancel(ctx context.Context, order *models.Order) (*models.Order, error) {
	claimed, err := s.Store.ClaimRestock(ctx, order.ID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if !claimed {
		// Quelqu'un d'autre a (ou avait) déjà le restock : on se contente
		// de la transition de statut.
		if err := s.Store.UpdateStatus(ctx, order.ID, StatusCanceled); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return s.Store.GetByID(ctx, order.ID)
	}

	var failures []string
	for _, it := range order.Items {
		if _, err := s.Ledger.Adjust(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("⚠️ Restock impossible pour %s (%s, +%d): %v", it.Name, it.ProductID, it.Quantity, err)
			failures = append(failures, fmt.Sprintf("%s (%s, +%d): %v", it.Name, it.ProductID, it.Quantity, err))
		}
	}

	note := ""
	if len(failures) > 0 {
		note = "restock partiel: " + strings.Join(failures, "; ")
	}

	if err := s.Store.FinishRestock(ctx, order.ID, StatusCanceled, note); err != nil {
		// Le flag restocked est déjà posé : surtout ne pas recréditer une
		// deuxième fois. On logge et on remonte l'échec de persistance.
		log.Printf("❌ Statut canceled non persisté pour %s après restock: %v", order.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if s.Payments != nil && order.PaymentIntentID != "" {
		if err := s.Payments.Refund(ctx, order); err != nil {
			log.Printf("⚠️ Remboursement non effectué pour la commande %s: %v", order.ID, err)
		}
	}

	if note != "" {
		log.Printf("⚠️ Commande %s annulée avec restock partiel: %s", order.ID, note)
	} else {
		log.Printf("✅ Commande %s annulée, stock recrédité", order.ID)
	}

	return s.Store.GetByID(ctx, order.ID)
}
