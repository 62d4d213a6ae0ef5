package orders

import "strings"

// Status d'une commande. Le cycle de vie est strictement linéaire
// (pending → packing → shipping → delivered) et l'annulation n'est
// possible que depuis un état non terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPacking   Status = "packing"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPacking: true, StatusCanceled: true},
	StatusPacking:   {StatusShipping: true, StatusCanceled: true},
	StatusShipping:  {StatusDelivered: true, StatusCanceled: true},
	StatusDelivered: {},
	StatusCanceled:  {},
}

// ParseStatus normalise un statut reçu du client (insensible à la casse)
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusPacking, StatusShipping, StatusDelivered, StatusCanceled:
		return s, true
	}
	return "", false
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
