package scylladb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"maison_back_end/internal/database"
	"maison_back_end/internal/models"
	"maison_back_end/internal/stock"
)

// Nombre de tentatives CAS avant d'abandonner sous contention
const casRetries = 8

// Ledger implémente stock.Ledger sur ScyllaDB avec une transaction légère
// (LWT) : l'UPDATE n'est appliqué que si le stock lu n'a pas bougé entre
// temps. C'est le store qui sérialise les writers concurrents sur un même
// produit : deux décréments pour la dernière unité donnent exactement un
// succès et un ErrInsufficientStock.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

func (l *Ledger) Adjust(ctx context.Context, productID string, delta int) (int, error) {
	if delta == 0 {
		return 0, stock.ErrInvalidDelta
	}

	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", stock.ErrProductNotFound, productID)
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		err := session.Query(`SELECT stock FROM products WHERE product_id = ?`, pid).
			WithContext(ctx).Scan(&current)
		if err != nil {
			if errors.Is(err, gocql.ErrNotFound) {
				return 0, stock.ErrProductNotFound
			}
			return 0, err
		}

		next := current + delta
		if next < 0 {
			return current, fmt.Errorf("%w: %d disponible(s), %d demandé(s)",
				stock.ErrInsufficientStock, current, -delta)
		}

		var prev int
		applied, err := session.Query(
			`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
			next, time.Now(), pid, current).
			WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return 0, err
		}
		if applied {
			return next, nil
		}
		// Un autre writer est passé entre le SELECT et l'UPDATE : on relit
	}

	return 0, stock.ErrContention
}

// RecordMovement écrit une ligne d'audit dans stock_movements
func (l *Ledger) RecordMovement(ctx context.Context, m models.StockMovement) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	pid, err := gocql.ParseUUID(m.ProductID)
	if err != nil {
		return fmt.Errorf("id produit invalide: %v", err)
	}

	id := gocql.TimeUUID()
	return session.Query(`
		INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, pid, m.Type, m.Quantity, m.PrevStock, m.NewStock, m.Reason, m.OrderID, m.UserID, m.CreatedAt).
		WithContext(ctx).Exec()
}

// Movements retourne l'historique des mouvements d'un produit
func (l *Ledger) Movements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", stock.ErrProductNotFound, productID)
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	iter := session.Query(`
		SELECT id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
		FROM stock_movements WHERE product_id = ? LIMIT ?`, pid, limit).
		WithContext(ctx).Iter()
	defer iter.Close()

	var movements []models.StockMovement
	var (
		id, prodID gocql.UUID
		m          models.StockMovement
	)
	for iter.Scan(&id, &prodID, &m.Type, &m.Quantity, &m.PrevStock, &m.NewStock, &m.Reason, &m.OrderID, &m.UserID, &m.CreatedAt) {
		m.ID = id.String()
		m.ProductID = prodID.String()
		movements = append(movements, m)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return movements, nil
}
