package cartclient_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maison_back_end/pkg/cartclient"
)

type patchCall struct {
	productID string
	quantity  int
}

// fakeAPI enregistre les appels réseau du client sous mutex
type fakeAPI struct {
	mu       sync.Mutex
	patches  []patchCall
	deletes  []string
	batches  int
	stocks   map[string]int
	patchErr error
}

func (f *fakeAPI) PatchQuantity(ctx context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patches = append(f.patches, patchCall{productID, quantity})
	return nil
}

func (f *fakeAPI) DeleteLine(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, productID)
	return nil
}

func (f *fakeAPI) BatchStock(ctx context.Context, productIDs []string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		if st, ok := f.stocks[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (f *fakeAPI) calls() (patches []patchCall, deletes []string, batches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]patchCall(nil), f.patches...), append([]string(nil), f.deletes...), f.batches
}

func newClient(t *testing.T, stocks map[string]int, lines ...cartclient.Line) (*cartclient.Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{stocks: stocks}
	c := cartclient.New(api,
		cartclient.WithDebounce(30*time.Millisecond),
		cartclient.WithUndoWindow(60*time.Millisecond),
	)
	c.Load(lines)
	require.NoError(t, c.RefreshStock(context.Background()))
	return c, api
}

func TestRafaleDeClicsUnSeulPatch(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10},
		cartclient.Line{ProductID: "p1", Name: "Bougie", Quantity: 1})

	// 5 clics rapides : la quantité visible suit chaque clic
	for i := 0; i < 5; i++ {
		c.Increment("p1", +1)
	}
	assert.Equal(t, 6, c.Quantity("p1"))

	patches, _, _ := api.calls()
	assert.Empty(t, patches, "rien ne part tant que la rafale n'est pas calmée")

	time.Sleep(150 * time.Millisecond)

	patches, _, _ = api.calls()
	require.Len(t, patches, 1, "toute la rafale est coalescée en un seul PATCH")
	assert.Equal(t, patchCall{"p1", 6}, patches[0])
}

func TestIncrementPlafonneAuStockConnu(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 3},
		cartclient.Line{ProductID: "p1", Quantity: 3})

	// Déjà au plafond : la quantité ne bouge pas et rien n'est programmé
	c.Increment("p1", +1)
	assert.Equal(t, 3, c.Quantity("p1"))

	// Le décrément s'arrête à 1, jamais 0 (la suppression passe par Remove)
	c.Increment("p1", -5)
	assert.Equal(t, 1, c.Quantity("p1"))

	time.Sleep(150 * time.Millisecond)
	patches, _, _ := api.calls()
	require.Len(t, patches, 1, "seul le décrément a changé quelque chose")
	assert.Equal(t, patchCall{"p1", 1}, patches[0])
}

func TestRemovePuisUndo(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10},
		cartclient.Line{ProductID: "p1", Quantity: 4})

	c.Remove("p1")
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Removing, "la ligne reste visible pendant la fenêtre d'annulation")

	c.Undo("p1")
	lines = c.Lines()
	require.Len(t, lines, 1)
	assert.False(t, lines[0].Removing)
	assert.Equal(t, 4, lines[0].Quantity, "la quantité d'avant est restaurée")

	// Même après l'expiration de la fenêtre, le serveur n'a rien vu
	time.Sleep(150 * time.Millisecond)
	patches, deletes, _ := api.calls()
	assert.Empty(t, patches)
	assert.Empty(t, deletes, "une suppression annulée ne génère aucun appel")
}

func TestRemoveExpireEnvoieUnSeulDelete(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10},
		cartclient.Line{ProductID: "p1", Quantity: 2},
		cartclient.Line{ProductID: "p2", Quantity: 1})

	c.Remove("p1")
	time.Sleep(150 * time.Millisecond)

	_, deletes, _ := api.calls()
	require.Equal(t, []string{"p1"}, deletes)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)
}

func TestRemoveAnnuleLePatchEnAttente(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10},
		cartclient.Line{ProductID: "p1", Quantity: 1})

	c.Increment("p1", +1)
	c.Remove("p1")
	time.Sleep(150 * time.Millisecond)

	patches, deletes, _ := api.calls()
	assert.Empty(t, patches, "le PATCH d'une ligne supprimée n'a plus de sens")
	assert.Equal(t, []string{"p1"}, deletes)
}

func TestRefreshStockReplafonneEnUnAppel(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10, "p2": 10},
		cartclient.Line{ProductID: "p1", Quantity: 5},
		cartclient.Line{ProductID: "p2", Quantity: 2})

	// Le stock de p1 s'effondre côté serveur
	api.mu.Lock()
	api.stocks["p1"] = 2
	api.mu.Unlock()

	require.NoError(t, c.RefreshStock(context.Background()))

	_, _, batches := api.calls()
	assert.Equal(t, 2, batches, "un seul appel batch par rafraîchissement")

	assert.Equal(t, 2, c.Quantity("p1"), "la quantité visible est replafonnée")
	assert.Equal(t, 2, c.Quantity("p2"), "les lignes sous le stock ne bougent pas")

	st, ok := c.Stock("p1")
	require.True(t, ok)
	assert.Equal(t, 2, st)

	// Le replafonnement est aussi poussé vers le serveur
	time.Sleep(150 * time.Millisecond)
	patches, _, _ := api.calls()
	require.Len(t, patches, 1)
	assert.Equal(t, patchCall{"p1", 2}, patches[0])
}

func TestLoadEstLePointDeReconciliation(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10},
		cartclient.Line{ProductID: "p1", Quantity: 1})

	c.Increment("p1", +1)
	c.Load([]cartclient.Line{{ProductID: "p1", Quantity: 3}})

	assert.Equal(t, 3, c.Quantity("p1"), "le serveur fait foi")

	time.Sleep(150 * time.Millisecond)
	patches, _, _ := api.calls()
	assert.Empty(t, patches, "les actions en attente sont annulées par le rechargement")
}

func TestEchecReseauRemonteSansRetourArriere(t *testing.T) {
	c, api := newClient(t, map[string]int{"p1": 10},
		cartclient.Line{ProductID: "p1", Quantity: 1})

	api.mu.Lock()
	api.patchErr = errors.New("timeout")
	api.mu.Unlock()

	var (
		mu     sync.Mutex
		failed []string
	)
	c.OnError = func(productID string, err error) {
		mu.Lock()
		failed = append(failed, productID)
		mu.Unlock()
	}

	c.Increment("p1", +1)
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"p1"}, failed)
	mu.Unlock()
	assert.Equal(t, 2, c.Quantity("p1"), "la valeur optimiste est conservée")
}
