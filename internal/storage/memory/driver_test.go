package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maison_back_end/internal/models"
	"maison_back_end/internal/stock"
)

func TestAdjustDecrementeEtIncremente(t *testing.T) {
	d := NewDriver()
	p := d.SeedProduct(models.Product{Name: "Bougie", Stock: 10})

	newStock, err := d.Adjust(context.Background(), p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 7, newStock)

	newStock, err = d.Adjust(context.Background(), p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 12, newStock)
}

func TestAdjustRefuseLeDecouvert(t *testing.T) {
	d := NewDriver()
	p := d.SeedProduct(models.Product{Name: "Savon", Stock: 2})

	_, err := d.Adjust(context.Background(), p.ID, -3)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	// Aucun effet de bord sur le refus
	got, err := d.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestAdjustProduitInconnu(t *testing.T) {
	d := NewDriver()

	_, err := d.Adjust(context.Background(), "n-existe-pas", 1)
	assert.ErrorIs(t, err, stock.ErrProductNotFound)
}

func TestAdjustDeltaNul(t *testing.T) {
	d := NewDriver()
	p := d.SeedProduct(models.Product{Name: "Plaid", Stock: 1})

	_, err := d.Adjust(context.Background(), p.ID, 0)
	assert.ErrorIs(t, err, stock.ErrInvalidDelta)
}

// Deux décréments concurrents pour la dernière unité : exactement un
// succès, et le stock ne passe jamais sous zéro.
func TestAdjustDerniereUnite(t *testing.T) {
	d := NewDriver()
	p := d.SeedProduct(models.Product{Name: "Plaid", Stock: 1})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = d.Adjust(context.Background(), p.ID, -1)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, stock.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, successes)

	got, err := d.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

// Rafale de décréments et d'incréments concurrents : le compteur reste un
// vrai compteur non négatif.
func TestAdjustConcurrenceJamaisNegatif(t *testing.T) {
	d := NewDriver()
	p := d.SeedProduct(models.Product{Name: "Savon", Stock: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	credited, debited := 0, 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			delta := -2
			if i%5 == 0 {
				delta = 1
			}
			if _, err := d.Adjust(context.Background(), p.ID, delta); err == nil {
				mu.Lock()
				if delta > 0 {
					credited += delta
				} else {
					debited += -delta
				}
				mu.Unlock()
			} else if !errors.Is(err, stock.ErrInsufficientStock) {
				t.Errorf("erreur inattendue: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := d.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.Stock, 0)
	assert.Equal(t, 50+credited-debited, got.Stock)
}

func TestBatchStockIgnoreLesInconnus(t *testing.T) {
	d := NewDriver()
	a := d.SeedProduct(models.Product{Name: "A", Stock: 3})
	b := d.SeedProduct(models.Product{Name: "B", Stock: 0})

	stocks, err := d.BatchStock(context.Background(), []string{a.ID, b.ID, "fantome"})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{a.ID: 3, b.ID: 0}, stocks)
}

func TestClaimRestockUneSeuleFois(t *testing.T) {
	d := NewDriver()
	o := &models.Order{ID: "o1", UserID: "u1", Status: "pending"}
	require.NoError(t, d.Insert(context.Background(), o))

	var wg sync.WaitGroup
	wins := make([]bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := d.ClaimRestock(context.Background(), "o1", o.CreatedAt)
			assert.NoError(t, err)
			wins[i] = ok
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, w := range wins {
		if w {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMovementsLimite(t *testing.T) {
	d := NewDriver()
	for i := 0; i < 5; i++ {
		require.NoError(t, d.RecordMovement(context.Background(), models.StockMovement{
			ProductID: "p1", Type: "restock", Quantity: i,
		}))
	}

	ms, err := d.Movements(context.Background(), "p1", 3)
	require.NoError(t, err)
	require.Len(t, ms, 3)
	// Les 3 plus récents, le dernier enregistré en premier
	assert.Equal(t, 4, ms[0].Quantity)
	assert.Equal(t, 2, ms[2].Quantity)
}
