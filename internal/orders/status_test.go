package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{
		"pending":    StatusPending,
		"PACKING":    StatusPacking,
		" Shipping ": StatusShipping,
		"delivered":  StatusDelivered,
		"Canceled":   StatusCanceled,
	} {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, "statut %q", raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"", "cancelled", "expédiée", "done"} {
		_, ok := ParseStatus(raw)
		assert.False(t, ok, "statut %q", raw)
	}
}

func TestCanTransition(t *testing.T) {
	tous := []Status{StatusPending, StatusPacking, StatusShipping, StatusDelivered, StatusCanceled}

	autorisees := map[Status]Status{
		StatusPending:  StatusPacking,
		StatusPacking:  StatusShipping,
		StatusShipping: StatusDelivered,
	}

	for _, from := range tous {
		for _, to := range tous {
			want := autorisees[from] == to ||
				(to == StatusCanceled && from != StatusDelivered && from != StatusCanceled)
			assert.Equal(t, want, CanTransition(from, to), "%s → %s", from, to)
		}
	}
}
