// Package memory est le driver de stockage en mémoire : même contrat que
// ScyllaDB + Redis, mais tout tient dans un mutex. Il sert au mode dev
// (STORAGE_DRIVER=memory) et aux tests unitaires.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
	"maison_back_end/internal/stock"
)

type Driver struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	orders    map[string]*models.Order
	carts     map[string][]models.CartItem
	movements map[string][]models.StockMovement
}

func NewDriver() *Driver {
	return &Driver{
		products:  make(map[string]*models.Product),
		orders:    make(map[string]*models.Order),
		carts:     make(map[string][]models.CartItem),
		movements: make(map[string][]models.StockMovement),
	}
}

// SeedProduct enregistre un produit (mode dev / tests)
func (d *Driver) SeedProduct(p models.Product) models.Product {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := p
	d.products[p.ID] = &cp
	return p
}

// RemoveProduct retire un produit du catalogue (mode dev / tests)
func (d *Driver) RemoveProduct(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.products, id)
}

// =============================================
// stock.Ledger
// =============================================

// Adjust applique le delta sous le mutex : le même contrat conditionnel
// que la LWT ScyllaDB, sérialisé ici par le verrou.
func (d *Driver) Adjust(ctx context.Context, productID string, delta int) (int, error) {
	if delta == 0 {
		return 0, stock.ErrInvalidDelta
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.products[productID]
	if !ok {
		return 0, stock.ErrProductNotFound
	}

	if delta < 0 && p.Stock < -delta {
		return p.Stock, fmt.Errorf("%w: %d disponible(s), %d demandé(s)",
			stock.ErrInsufficientStock, p.Stock, -delta)
	}

	p.Stock += delta
	p.UpdatedAt = time.Now()
	return p.Stock, nil
}

// =============================================
// stock.MovementStore
// =============================================

func (d *Driver) RecordMovement(ctx context.Context, m models.StockMovement) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	d.movements[m.ProductID] = append(d.movements[m.ProductID], m)
	return nil
}

func (d *Driver) Movements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ms := d.movements[productID]
	if limit <= 0 || limit > len(ms) {
		limit = len(ms)
	}
	// Le plus récent en premier, comme le journal persistant
	out := make([]models.StockMovement, 0, limit)
	for i := len(ms) - 1; i >= len(ms)-limit; i-- {
		out = append(out, ms[i])
	}
	return out, nil
}

// =============================================
// orders.ProductCatalog
// =============================================

func (d *Driver) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.products[id]
	if !ok {
		return nil, stock.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (d *Driver) ListProducts(ctx context.Context) ([]models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.Product, 0, len(d.products))
	for _, p := range d.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (d *Driver) BatchStock(ctx context.Context, ids []string) (map[string]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]int, len(ids))
	for _, id := range ids {
		if p, ok := d.products[id]; ok {
			out[id] = p.Stock
		}
	}
	return out, nil
}

// =============================================
// orders.Store
// =============================================

func (d *Driver) Insert(ctx context.Context, o *models.Order) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.orders[o.ID]; exists {
		return fmt.Errorf("commande %s déjà existante", o.ID)
	}
	cp := *o
	cp.Items = append([]models.OrderLineItem(nil), o.Items...)
	d.orders[o.ID] = &cp
	return nil
}

func (d *Driver) GetByID(ctx context.Context, id string) (*models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]models.OrderLineItem(nil), o.Items...)
	return &cp, nil
}

func (d *Driver) GetByUser(ctx context.Context, userID string) ([]models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.Order
	for _, o := range d.orders {
		if o.UserID == userID {
			cp := *o
			cp.Items = append([]models.OrderLineItem(nil), o.Items...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *Driver) FindByProduct(ctx context.Context, productID string) ([]models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []models.Order
	for _, o := range d.orders {
		for _, it := range o.Items {
			if it.ProductID == productID {
				cp := *o
				cp.Items = append([]models.OrderLineItem(nil), o.Items...)
				out = append(out, cp)
				break
			}
		}
	}
	return out, nil
}

func (d *Driver) UpdateStatus(ctx context.Context, id string, status orders.Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.Status = string(status)
	o.UpdatedAt = time.Now()
	return nil
}

func (d *Driver) ClaimRestock(ctx context.Context, id string, at time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok {
		return false, orders.ErrOrderNotFound
	}
	if o.Restocked {
		return false, nil
	}
	o.Restocked = true
	o.RestockedAt = &at
	o.UpdatedAt = at
	return true, nil
}

func (d *Driver) FinishRestock(ctx context.Context, id string, status orders.Status, note string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.Status = string(status)
	o.RestockNote = note
	o.UpdatedAt = time.Now()
	return nil
}

func (d *Driver) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	o.PaymentIntentID = paymentIntentID
	o.UpdatedAt = time.Now()
	return nil
}

// =============================================
// orders.CartStore
// =============================================

func (d *Driver) Get(ctx context.Context, userID string) ([]models.CartItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]models.CartItem(nil), d.carts[userID]...), nil
}

func (d *Driver) Replace(ctx context.Context, userID string, items []models.CartItem) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.carts[userID] = append([]models.CartItem(nil), items...)
	return nil
}

func (d *Driver) Clear(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.carts, userID)
	return nil
}
