package scylladb

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"maison_back_end/internal/database"
	"maison_back_end/internal/models"
	"maison_back_end/internal/stock"
)

// Catalog implémente orders.ProductCatalog sur le keyspace products
type Catalog struct{}

func NewCatalog() *Catalog { return &Catalog{} }

func (c *Catalog) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	pid, err := gocql.ParseUUID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", stock.ErrProductNotFound, id)
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var p models.Product
	var dbID gocql.UUID
	var catID gocql.UUID
	err = session.Query(`
		SELECT product_id, name, description, price, stock, low_stock_threshold, sku, category_id, image_urls, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`, pid).
		WithContext(ctx).
		Scan(&dbID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold, &p.SKU, &catID, &p.ImageURLs, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, stock.ErrProductNotFound
		}
		return nil, err
	}

	p.ID = dbID.String()
	p.CategoryID = catID.String()
	return &p, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`
		SELECT product_id, name, description, price, stock, low_stock_threshold, sku, category_id, image_urls, is_active, created_at, updated_at
		FROM products`).
		WithContext(ctx).Iter()
	defer iter.Close()

	var products []models.Product
	var p models.Product
	var dbID, catID gocql.UUID
	for iter.Scan(&dbID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold, &p.SKU, &catID, &p.ImageURLs, &p.IsActive, &p.CreatedAt, &p.UpdatedAt) {
		p.ID = dbID.String()
		p.CategoryID = catID.String()
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return products, nil
}

// BatchStock ramène le stock de tous les produits du panier en une requête,
// pour borner le nombre d'appels à O(1) par vue panier.
func (c *Catalog) BatchStock(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	uuids := make([]gocql.UUID, 0, len(ids))
	for _, id := range ids {
		pid, err := gocql.ParseUUID(id)
		if err != nil {
			continue // id invalide = produit inconnu, absent de la map
		}
		uuids = append(uuids, pid)
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT product_id, stock FROM products WHERE product_id IN ?`, uuids).
		WithContext(ctx).Iter()
	defer iter.Close()

	var pid gocql.UUID
	var st int
	for iter.Scan(&pid, &st) {
		out[pid.String()] = st
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}
