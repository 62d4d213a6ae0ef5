// Package cartclient est le client de réconciliation du panier, côté
// interface utilisateur. Il garde une quantité locale par ligne, plafonnée
// au dernier stock connu, regroupe les clics rapides en un seul PATCH
// (debounce) et offre un "supprimer" pardonnable : la suppression est
// programmée mais ne part vers le serveur qu'à l'expiration de la fenêtre
// d'annulation.
package cartclient

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultDebounce   = 400 * time.Millisecond
	DefaultUndoWindow = 5 * time.Second
)

// API est la surface serveur dont le client a besoin
type API interface {
	PatchQuantity(ctx context.Context, productID string, quantity int) error
	DeleteLine(ctx context.Context, productID string) error
	BatchStock(ctx context.Context, productIDs []string) (map[string]int, error)
}

// Line est l'état visible d'une ligne de panier
type Line struct {
	ProductID string
	Name      string
	Price     float64
	Quantity  int
	Removing  bool // en cours de suppression (fenêtre d'annulation ouverte)
}

// pendingAction est l'action différée d'une ligne : un timer et sa charge
// utile, remplacés en bloc à chaque nouvelle action de l'utilisateur.
type pendingAction struct {
	timer *time.Timer
	kind  string // "patch" | "delete"
	// état à restaurer si l'utilisateur annule la suppression
	restoreQty int
}

// Client réconcilie l'état local du panier avec le serveur.
// Toutes les méthodes sont sûres pour des timers et callbacks entrelacés :
// un seul mutex sérialise l'état, comme la boucle d'événements d'une UI.
type Client struct {
	api        API
	debounce   time.Duration
	undoWindow time.Duration

	// OnError reçoit les échecs réseau non bloquants (notification UI).
	// La quantité optimiste locale est conservée telle quelle : la
	// prochaine lecture complète du serveur fait foi.
	OnError func(productID string, err error)

	mu      sync.Mutex
	lines   map[string]*Line
	order   []string // ordre d'affichage des lignes
	stocks  map[string]int
	pending map[string]*pendingAction
}

// Option configure le client
type Option func(*Client)

// WithDebounce change la fenêtre de regroupement des PATCH
func WithDebounce(d time.Duration) Option {
	return func(c *Client) { c.debounce = d }
}

// WithUndoWindow change la durée de la fenêtre d'annulation
func WithUndoWindow(d time.Duration) Option {
	return func(c *Client) { c.undoWindow = d }
}

func New(api API, opts ...Option) *Client {
	c := &Client{
		api:        api,
		debounce:   DefaultDebounce,
		undoWindow: DefaultUndoWindow,
		lines:      make(map[string]*Line),
		stocks:     make(map[string]int),
		pending:    make(map[string]*pendingAction),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load remplace l'état local par le panier servi par le serveur.
// C'est le point de réconciliation : toute divergence optimiste s'arrête ici.
func (c *Client) Load(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAllLocked()
	c.lines = make(map[string]*Line, len(lines))
	c.order = c.order[:0]
	for i := range lines {
		cp := lines[i]
		c.lines[cp.ProductID] = &cp
		c.order = append(c.order, cp.ProductID)
	}
}

// Lines retourne une photo des lignes visibles, dans l'ordre d'affichage
func (c *Client) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		if l, ok := c.lines[id]; ok {
			out = append(out, *l)
		}
	}
	return out
}

// Quantity retourne la quantité visible d'une ligne (0 si absente)
func (c *Client) Quantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.lines[productID]; ok {
		return l.Quantity
	}
	return 0
}

// Increment ajoute delta clics (+1/-1 typiquement) à une ligne.
// La quantité visible bouge tout de suite ; le PATCH part quand la rafale
// de clics se calme. quantité = min(max(courante+delta, 1), stock connu).
func (c *Client) Increment(productID string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[productID]
	if !ok || l.Removing {
		return
	}

	desired := l.Quantity + delta
	if desired < 1 {
		desired = 1
	}
	if st, known := c.stocks[productID]; known && desired > st {
		desired = st
	}
	if desired == l.Quantity {
		return // le bouton + refuse de dépasser le stock : rien à envoyer
	}

	l.Quantity = desired
	c.schedulePatchLocked(productID, desired)
}

// schedulePatchLocked (ré)arme le debounce avec la dernière valeur posée.
// Chaque clic remplace l'action en attente : un seul PATCH par rafale.
func (c *Client) schedulePatchLocked(productID string, quantity int) {
	if prev, ok := c.pending[productID]; ok {
		prev.timer.Stop()
	}

	action := &pendingAction{kind: "patch"}
	action.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if c.pending[productID] != action {
			c.mu.Unlock()
			return // remplacé ou annulé entre temps
		}
		delete(c.pending, productID)
		qty := 0
		if l, ok := c.lines[productID]; ok {
			qty = l.Quantity
		}
		c.mu.Unlock()

		if qty == 0 {
			return
		}
		if err := c.api.PatchQuantity(context.Background(), productID, qty); err != nil {
			// Pas de retour arrière silencieux : on garde la valeur
			// optimiste et on remonte l'erreur à l'UI.
			c.notifyError(productID, err)
		}
	})
	c.pending[productID] = action
}

// Remove marque la ligne "en suppression" et programme le DELETE serveur
// à l'expiration de la fenêtre d'annulation. Rien ne part avant.
func (c *Client) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[productID]
	if !ok || l.Removing {
		return
	}

	// Un PATCH en attente pour cette ligne n'a plus de sens
	if prev, ok := c.pending[productID]; ok {
		prev.timer.Stop()
	}

	l.Removing = true
	action := &pendingAction{kind: "delete", restoreQty: l.Quantity}
	action.timer = time.AfterFunc(c.undoWindow, func() {
		c.mu.Lock()
		if c.pending[productID] != action {
			c.mu.Unlock()
			return // l'utilisateur a annulé
		}
		delete(c.pending, productID)
		delete(c.lines, productID)
		c.removeFromOrderLocked(productID)
		c.mu.Unlock()

		if err := c.api.DeleteLine(context.Background(), productID); err != nil {
			c.notifyError(productID, err)
		}
	})
	c.pending[productID] = action
}

// Undo annule une suppression en attente : le timer est coupé, la ligne
// retrouve sa quantité d'avant, et le serveur ne voit rien passer.
func (c *Client) Undo(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	action, ok := c.pending[productID]
	if !ok || action.kind != "delete" {
		return
	}

	action.timer.Stop()
	delete(c.pending, productID)

	if l, ok := c.lines[productID]; ok {
		l.Removing = false
		l.Quantity = action.restoreQty
	}
}

// RefreshStock rafraîchit le dernier stock connu de toutes les lignes en
// un seul appel batch, puis re-plafonne les quantités visibles.
func (c *Client) RefreshStock(ctx context.Context) error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.order))
	for _, id := range c.order {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	stocks, err := c.api.BatchStock(ctx, ids)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stocks = stocks
	for id, l := range c.lines {
		if st, ok := stocks[id]; ok && !l.Removing && l.Quantity > st && st > 0 {
			l.Quantity = st
			c.schedulePatchLocked(id, st)
		}
	}
	return nil
}

// Stock retourne le dernier stock connu d'un produit
func (c *Client) Stock(productID string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stocks[productID]
	return st, ok
}

// Flush coupe tous les timers en attente sans rien envoyer (fermeture UI)
func (c *Client) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelAllLocked()
}

func (c *Client) cancelAllLocked() {
	for id, action := range c.pending {
		action.timer.Stop()
		delete(c.pending, id)
	}
}

func (c *Client) removeFromOrderLocked(productID string) {
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Client) notifyError(productID string, err error) {
	if c.OnError != nil {
		c.OnError(productID, err)
	}
}
