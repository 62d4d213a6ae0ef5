package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"maison_back_end/internal/models"
	"maison_back_end/internal/stock"
)

// MaxQuantityPerLine : règle métier, vérifiée avant de toucher au stock
const MaxQuantityPerLine = 5

// Service porte la réservation de stock et le cycle de vie des commandes.
// Toute mutation de stock passe par le Ledger ; le Service n'y accède
// jamais en read-then-write.
type Service struct {
	Ledger  stock.Ledger
	Catalog ProductCatalog
	Store   Store
	Carts   CartStore // optionnel (mode items explicites)

	Payments PaymentProvider // optionnel
	Notifier Notifier        // optionnel
}

// CreateOrder réserve le stock de chaque ligne puis persiste la commande.
//
// La séquence n'est pas une transaction multi-documents : chaque ligne est
// un décrément conditionnel indépendant. Si une ligne échoue (stock
// insuffisant, produit disparu) ou si la sauvegarde échoue, tous les
// décréments déjà appliqués sont recrédités avant de retourner l'erreur :
// jamais de stock réservé sans commande persistée en face.
func (s *Service) CreateOrder(ctx context.Context, userID, email string, items []models.CartItem, total float64, fromCart bool) (*models.Order, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id manquant", ErrInvalidLineItem)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: la commande est vide", ErrInvalidLineItem)
	}

	// ✅ Validation complète AVANT le moindre décrément : une ligne
	// invalide ne déclenche jamais de compensation.
	for _, it := range items {
		if it.ProductID == "" {
			return nil, fmt.Errorf("%w: référence produit manquante", ErrInvalidLineItem)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantité %d pour le produit %s", ErrInvalidLineItem, it.Quantity, it.ProductID)
		}
		if it.Quantity > MaxQuantityPerLine {
			return nil, fmt.Errorf("%w: quantité %d > %d pour le produit %s", ErrInvalidLineItem, it.Quantity, MaxQuantityPerLine, it.ProductID)
		}
	}

	// Réservation séquentielle. Des doublons du même produit sont des
	// décréments indépendants : le deuxième voit le stock déjà réduit.
	var reserved []models.CartItem
	for _, it := range items {
		if _, err := s.Ledger.Adjust(ctx, it.ProductID, -it.Quantity); err != nil {
			s.compensate(ctx, reserved)
			return nil, s.reservationError(ctx, it, err)
		}
		reserved = append(reserved, it)
	}

	// Photo des lignes depuis le catalogue (nom/prix/image du moment) ;
	// repli sur les champs dénormalisés du panier si la lecture échoue.
	lines := make([]models.OrderLineItem, 0, len(items))
	for _, it := range items {
		line := models.OrderLineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		}
		if p, err := s.Catalog.GetProduct(ctx, it.ProductID); err == nil {
			line.Name = p.Name
			line.Price = p.Price
			if line.ImageURL == "" {
				line.ImageURL = p.ImageURL()
			}
		}
		lines = append(lines, line)
	}

	if total <= 0 {
		for _, l := range lines {
			total += l.Price * float64(l.Quantity)
		}
	}

	now := time.Now()
	order := &models.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Items:      lines,
		TotalPrice: total,
		Status:     string(StatusPending),
		Restocked:  false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Store.Insert(ctx, order); err != nil {
		log.Printf("❌ Sauvegarde commande impossible, rollback des réservations: %v", err)
		s.compensate(ctx, reserved)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Le panier est vidé seulement quand la commande en provient.
	// Un échec ici n'est pas fatal : la commande existe et le stock est juste.
	if fromCart && s.Carts != nil {
		if err := s.Carts.Clear(ctx, userID); err != nil {
			log.Printf("⚠️ Panier de %s non vidé après commande %s: %v", userID, order.ID, err)
		}
	}

	s.afterCreate(ctx, order, email)

	log.Printf("✅ Commande %s créée pour %s (%d ligne(s), total %.2f€)", order.ID, userID, len(lines), total)
	return order, nil
}

// compensate recrédite chaque ligne déjà décrémentée. Un échec ici est
// le seul chemin qui peut laisser l'invariant violé : on le logge fort.
func (s *Service) compensate(ctx context.Context, reserved []models.CartItem) {
	for _, it := range reserved {
		if _, err := s.Ledger.Adjust(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("❌ COMPENSATION ÉCHOUÉE pour le produit %s (+%d): %v, stock à corriger manuellement",
				it.ProductID, it.Quantity, err)
		}
	}
}

// reservationError enrichit l'erreur du ledger avec le nom du produit épuisé
func (s *Service) reservationError(ctx context.Context, it models.CartItem, err error) error {
	if errors.Is(err, stock.ErrInsufficientStock) {
		shortage := &StockShortage{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Requested:   it.Quantity,
		}
		if p, perr := s.Catalog.GetProduct(ctx, it.ProductID); perr == nil {
			shortage.ProductName = p.Name
			shortage.Available = p.Stock
		}
		return shortage
	}
	if errors.Is(err, stock.ErrProductNotFound) {
		return fmt.Errorf("%w: produit %s", stock.ErrProductNotFound, it.ProductID)
	}
	return fmt.Errorf("réservation du produit %s: %w", it.ProductID, err)
}

// afterCreate déclenche les effets best-effort (paiement, email, alerte stock)
func (s *Service) afterCreate(ctx context.Context, order *models.Order, email string) {
	if s.Payments != nil {
		if piID, err := s.Payments.CreateIntent(ctx, order, email); err != nil {
			log.Printf("⚠️ PaymentIntent non créé pour la commande %s: %v", order.ID, err)
		} else if piID != "" {
			order.PaymentIntentID = piID
			if err := s.Store.SetPaymentIntent(ctx, order.ID, piID); err != nil {
				log.Printf("⚠️ payment_intent_id non enregistré pour %s: %v", order.ID, err)
			}
		}
	}

	if s.Notifier != nil && email != "" {
		go s.Notifier.OrderConfirmed(*order, email)
	}

	// 🚨 Alerte stock faible après réservation
	for _, l := range order.Items {
		p, err := s.Catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			continue
		}
		threshold := p.LowStockThreshold
		if threshold == 0 {
			threshold = 10 // Seuil par défaut
		}
		if p.Stock == 0 {
			log.Printf("🚨 Rupture de stock pour %s (%s)", p.Name, p.ID)
		} else if p.Stock <= threshold {
			log.Printf("🚨 Stock faible pour %s (%s): %d restant(s)", p.Name, p.ID, p.Stock)
		}
	}
}
