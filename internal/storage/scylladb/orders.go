package scylladb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"maison_back_end/internal/database"
	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
)

// OrderStore implémente orders.Store sur le keyspace orders. Les lignes de
// commande sont figées en JSON dans la colonne items : ce sont des photos,
// jamais re-jointes avec le catalogue.
type OrderStore struct{}

func NewOrderStore() *OrderStore { return &OrderStore{} }

func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	oid, err := gocql.ParseUUID(o.ID)
	if err != nil {
		return fmt.Errorf("id commande invalide: %v", err)
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("sérialisation des lignes: %v", err)
	}

	return session.Query(`
		INSERT INTO orders (order_id, user_id, items, total_price, status, restocked, restock_note, payment_intent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		oid, o.UserID, string(itemsJSON), o.TotalPrice, o.Status, o.Restocked, o.RestockNote, o.PaymentIntentID, o.CreatedAt, o.UpdatedAt).
		WithContext(ctx).Exec()
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	oid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", orders.ErrOrderNotFound, id)
	}

	o, err := scanOrder(session.Query(`
		SELECT order_id, user_id, items, total_price, status, restocked, restocked_at, restock_note, payment_intent_id, created_at, updated_at
		FROM orders WHERE order_id = ?`, oid).WithContext(ctx))
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, orders.ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT order_id, user_id, items, total_price, status, restocked, restocked_at, restock_note, payment_intent_id, created_at, updated_at
		FROM orders WHERE user_id = ? ALLOW FILTERING`, userID).
		WithContext(ctx).Iter()

	return collectOrders(iter)
}

// FindByProduct retourne les commandes qui contiennent une ligne pour ce
// produit. Les lignes sont un blob JSON, donc on filtre côté application.
func (s *OrderStore) FindByProduct(ctx context.Context, productID string) ([]models.Order, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT order_id, user_id, items, total_price, status, restocked, restocked_at, restock_note, payment_intent_id, created_at, updated_at
		FROM orders`).
		WithContext(ctx).Iter()

	all, err := collectOrders(iter)
	if err != nil {
		return nil, err
	}

	var out []models.Order
	for _, o := range all {
		for _, it := range o.Items {
			if it.ProductID == productID {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status orders.Status) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	oid, err := gocql.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("%w: id %q", orders.ErrOrderNotFound, id)
	}

	return session.Query(`UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?`,
		string(status), time.Now(), oid).
		WithContext(ctx).Exec()
}

// ClaimRestock pose le flag restocked par LWT : un seul appelant gagne,
// même avec des annulations concurrentes sur plusieurs instances.
func (s *OrderStore) ClaimRestock(ctx context.Context, id string, at time.Time) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	oid, err := gocql.ParseUUID(id)
	if err != nil {
		return false, fmt.Errorf("%w: id %q", orders.ErrOrderNotFound, id)
	}

	var prev bool
	applied, err := session.Query(`
		UPDATE orders SET restocked = true, restocked_at = ?, updated_at = ? WHERE order_id = ? IF restocked = false`,
		at, at, oid).
		WithContext(ctx).ScanCAS(&prev)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *OrderStore) FinishRestock(ctx context.Context, id string, status orders.Status, note string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	oid, err := gocql.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("%w: id %q", orders.ErrOrderNotFound, id)
	}

	return session.Query(`UPDATE orders SET status = ?, restock_note = ?, updated_at = ? WHERE order_id = ?`,
		string(status), note, time.Now(), oid).
		WithContext(ctx).Exec()
}

func (s *OrderStore) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	oid, err := gocql.ParseUUID(id)
	if err != nil {
		return fmt.Errorf("%w: id %q", orders.ErrOrderNotFound, id)
	}

	return session.Query(`UPDATE orders SET payment_intent_id = ?, updated_at = ? WHERE order_id = ?`,
		paymentIntentID, time.Now(), oid).
		WithContext(ctx).Exec()
}

// --- helpers de scan ---

type orderScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(q orderScanner) (*models.Order, error) {
	var o models.Order
	var oid gocql.UUID
	var itemsJSON string
	var restockedAt time.Time

	if err := q.Scan(&oid, &o.UserID, &itemsJSON, &o.TotalPrice, &o.Status, &o.Restocked,
		&restockedAt, &o.RestockNote, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	o.ID = oid.String()
	if !restockedAt.IsZero() {
		o.RestockedAt = &restockedAt
	}
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return nil, fmt.Errorf("lignes de la commande %s illisibles: %v", o.ID, err)
		}
	}
	return &o, nil
}

func collectOrders(iter *gocql.Iter) ([]models.Order, error) {
	defer iter.Close()

	var out []models.Order
	for {
		var o models.Order
		var oid gocql.UUID
		var itemsJSON string
		var restockedAt time.Time

		if !iter.Scan(&oid, &o.UserID, &itemsJSON, &o.TotalPrice, &o.Status, &o.Restocked,
			&restockedAt, &o.RestockNote, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt) {
			break
		}

		o.ID = oid.String()
		if !restockedAt.IsZero() {
			at := restockedAt
			o.RestockedAt = &at
		}
		if itemsJSON != "" {
			if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
				return nil, fmt.Errorf("lignes de la commande %s illisibles: %v", o.ID, err)
			}
		}
		out = append(out, o)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
