package payments

import (
	"context"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"

	"maison_back_end/internal/models"
)

// StripeProvider implémente orders.PaymentProvider. Tout est best-effort :
// la commande et le stock ne dépendent jamais de Stripe.
type StripeProvider struct{}

func NewStripeProvider() *StripeProvider { return &StripeProvider{} }

// Configured indique si la clé Stripe est chargée
func Configured() bool { return stripe.Key != "" }

// CreateIntent crée le PaymentIntent pour le montant de la commande
func (p *StripeProvider) CreateIntent(ctx context.Context, o *models.Order, email string) (string, error) {
	if !Configured() {
		return "", nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(o.TotalPrice * 100)), // centimes
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
	}
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("user_id", o.UserID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("création PaymentIntent: %w", err)
	}

	log.Printf("💳 PaymentIntent %s créé pour la commande %s (%.2f€)", pi.ID, o.ID, o.TotalPrice)
	return pi.ID, nil
}

// Refund rembourse le PaymentIntent d'une commande annulée
func (p *StripeProvider) Refund(ctx context.Context, o *models.Order) error {
	if !Configured() || o.PaymentIntentID == "" {
		return nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(o.PaymentIntentID),
	}
	params.AddMetadata("order_id", o.ID)

	r, err := refund.New(params)
	if err != nil {
		return fmt.Errorf("remboursement de %s: %w", o.PaymentIntentID, err)
	}

	log.Printf("💰 Remboursement %s créé pour la commande %s", r.ID, o.ID)
	return nil
}
