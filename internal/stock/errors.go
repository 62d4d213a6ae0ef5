package stock

import "errors"

var (
	// ErrInsufficientStock : un décrément a été refusé car le stock restant est insuffisant.
	// Aucun effet de bord dans ce cas.
	ErrInsufficientStock = errors.New("stock insuffisant")

	// ErrProductNotFound : le produit référencé n'existe pas (ou plus).
	ErrProductNotFound = errors.New("produit introuvable")

	// ErrInvalidDelta : un ajustement de zéro n'a pas de sens.
	ErrInvalidDelta = errors.New("delta invalide")

	// ErrContention : trop de writers concurrents sur le même produit,
	// la boucle CAS a épuisé ses tentatives. L'appelant peut réessayer.
	ErrContention = errors.New("trop de contention sur le stock")
)
