package orders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maison_back_end/internal/models"
	"maison_back_end/internal/orders"
	"maison_back_end/internal/stock"
	"maison_back_end/internal/storage/memory"
)

func newService(d *memory.Driver) *orders.Service {
	return &orders.Service{Ledger: d, Catalog: d, Store: d, Carts: d}
}

func TestCreateOrderReserveChaqueLigne(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Bougie parfumée", Price: 12.50, Stock: 10})
	b := d.SeedProduct(models.Product{Name: "Vase en grès", Price: 34.00, Stock: 10})

	order, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
	}, 0, false)
	require.NoError(t, err)

	assert.Equal(t, string(orders.StatusPending), order.Status)
	assert.False(t, order.Restocked)
	assert.InDelta(t, 2*12.50+3*34.00, order.TotalPrice, 0.001)

	// Les lignes sont une photo du catalogue au moment de la commande
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Bougie parfumée", order.Items[0].Name)
	assert.Equal(t, 34.00, order.Items[1].Price)

	pa, _ := d.GetProduct(context.Background(), a.ID)
	pb, _ := d.GetProduct(context.Background(), b.ID)
	assert.Equal(t, 8, pa.Stock)
	assert.Equal(t, 7, pb.Stock)
}

func TestCreateOrderRollbackSiRupture(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Plaid en laine", Price: 49.90, Stock: 5})
	b := d.SeedProduct(models.Product{Name: "Miroir doré", Price: 89.00, Stock: 1})

	_, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
	}, 0, false)
	require.Error(t, err)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	// L'erreur nomme la ligne fautive avec les quantités en jeu
	var shortage *orders.StockShortage
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, b.ID, shortage.ProductID)
	assert.Equal(t, "Miroir doré", shortage.ProductName)
	assert.Equal(t, 1, shortage.Available)
	assert.Equal(t, 3, shortage.Requested)

	// Le décrément de A a été recrédité : aucun stock réservé sans commande
	pa, _ := d.GetProduct(context.Background(), a.ID)
	pb, _ := d.GetProduct(context.Background(), b.ID)
	assert.Equal(t, 5, pa.Stock)
	assert.Equal(t, 1, pb.Stock)

	mine, _ := d.GetByUser(context.Background(), "user-1")
	assert.Empty(t, mine)
}

func TestCreateOrderRefuseQuantiteExcessive(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Tasse", Price: 9.90, Stock: 20})

	_, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: orders.MaxQuantityPerLine + 1},
	}, 0, false)
	require.ErrorIs(t, err, orders.ErrInvalidLineItem)

	// Rejeté avant le moindre décrément
	pa, _ := d.GetProduct(context.Background(), a.ID)
	assert.Equal(t, 20, pa.Stock)
}

func TestCreateOrderRefuseLignesInvalides(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Tasse", Stock: 20})

	cases := []struct {
		name  string
		items []models.CartItem
	}{
		{"commande vide", nil},
		{"quantité nulle", []models.CartItem{{ProductID: a.ID, Quantity: 0}}},
		{"quantité négative", []models.CartItem{{ProductID: a.ID, Quantity: -2}}},
		{"produit sans référence", []models.CartItem{{ProductID: "", Quantity: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), "user-1", "", tc.items, 0, false)
			assert.ErrorIs(t, err, orders.ErrInvalidLineItem)
		})
	}

	_, err := svc.CreateOrder(context.Background(), "", "", []models.CartItem{{ProductID: a.ID, Quantity: 1}}, 0, false)
	assert.ErrorIs(t, err, orders.ErrInvalidLineItem)
}

func TestCreateOrderDoublonsDecrementesSequentiellement(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Coussin lin", Price: 25.00, Stock: 5})

	// 3 + 3 : la deuxième ligne voit le stock déjà réduit à 2 et échoue,
	// la première est recréditée
	_, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: a.ID, Quantity: 3},
	}, 0, false)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)
	pa, _ := d.GetProduct(context.Background(), a.ID)
	assert.Equal(t, 5, pa.Stock)

	// 2 + 2 passe et consomme bien les deux lignes
	order, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: a.ID, Quantity: 2},
	}, 0, false)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	pa, _ = d.GetProduct(context.Background(), a.ID)
	assert.Equal(t, 1, pa.Stock)
}

// storeInsertEnPanne simule une base indisponible au moment de la sauvegarde
type storeInsertEnPanne struct {
	*memory.Driver
}

func (s storeInsertEnPanne) Insert(ctx context.Context, o *models.Order) error {
	return errors.New("scylla indisponible")
}

func TestCreateOrderCompensationSiSauvegardeEchoue(t *testing.T) {
	d := memory.NewDriver()
	svc := &orders.Service{Ledger: d, Catalog: d, Store: storeInsertEnPanne{d}, Carts: d}
	a := d.SeedProduct(models.Product{Name: "Lampe de chevet", Price: 59.00, Stock: 4})

	_, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 2},
	}, 0, false)
	require.ErrorIs(t, err, orders.ErrPersistence)

	// Les réservations sont recréditées quand la commande ne peut pas exister
	pa, _ := d.GetProduct(context.Background(), a.ID)
	assert.Equal(t, 4, pa.Stock)
}

func TestCreateOrderVideLePanierSeulementSiDemande(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Carafe", Price: 18.00, Stock: 10})
	items := []models.CartItem{{ProductID: a.ID, Name: "Carafe", Price: 18.00, Quantity: 1}}
	require.NoError(t, d.Replace(context.Background(), "user-1", items))

	_, err := svc.CreateOrder(context.Background(), "user-1", "", items, 0, false)
	require.NoError(t, err)
	cart, _ := d.Get(context.Background(), "user-1")
	assert.Len(t, cart, 1, "commande sur items explicites : le panier reste intact")

	_, err = svc.CreateOrder(context.Background(), "user-1", "", items, 0, true)
	require.NoError(t, err)
	cart, _ = d.Get(context.Background(), "user-1")
	assert.Empty(t, cart, "commande depuis le panier : le panier est vidé")
}

func TestCreateOrderTotalClientAccepteSiPositif(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Savon", Price: 6.50, Stock: 10})

	order, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 2},
	}, 11.70, false) // remise appliquée côté checkout
	require.NoError(t, err)
	assert.InDelta(t, 11.70, order.TotalPrice, 0.001)
}

func TestScenarioEpuisementPuisAnnulation(t *testing.T) {
	d := memory.NewDriver()
	svc := newService(d)
	a := d.SeedProduct(models.Product{Name: "Fauteuil rotin", Price: 249.00, Stock: 5})

	order, err := svc.CreateOrder(context.Background(), "user-1", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 5},
	}, 0, false)
	require.NoError(t, err)
	pa, _ := d.GetProduct(context.Background(), a.ID)
	assert.Equal(t, 0, pa.Stock)

	// Plus rien à vendre tant que la commande tient la réservation
	_, err = svc.CreateOrder(context.Background(), "user-2", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 1},
	}, 0, false)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	// L'annulation recrédite tout et rouvre la vente
	canceled, err := svc.SetStatus(context.Background(), order.ID, "canceled")
	require.NoError(t, err)
	assert.Equal(t, string(orders.StatusCanceled), canceled.Status)
	assert.True(t, canceled.Restocked)

	pa, _ = d.GetProduct(context.Background(), a.ID)
	assert.Equal(t, 5, pa.Stock)

	_, err = svc.CreateOrder(context.Background(), "user-2", "", []models.CartItem{
		{ProductID: a.ID, Quantity: 1},
	}, 0, false)
	assert.NoError(t, err)
}
