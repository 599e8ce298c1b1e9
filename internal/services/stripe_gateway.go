package services

import (
	"encoding/json"

	"github.com/aureliahotels/booking-backend/internal/config"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway implements PaymentGateway against the Stripe API
type StripeGateway struct {
	webhookSecret string
	logger        *logrus.Logger
}

// NewStripeGateway configures the global Stripe client key and returns the
// gateway.
func NewStripeGateway(cfg config.StripeConfig, logger *logrus.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{webhookSecret: cfg.WebhookSecret, logger: logger}
}

// CreateIntent opens a manual-confirmation payment intent with booking
// metadata so webhook events can be traced back to the booking.
func (g *StripeGateway) CreateIntent(amount int64, currency string, metadata map[string]string) (*GatewayIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, g.wrapError(err, "create payment intent")
	}
	return g.toGatewayIntent(pi), nil
}

// ConfirmIntent attaches the payment method and confirms the intent
func (g *StripeGateway) ConfirmIntent(intentID, paymentMethodRef string) (*GatewayIntent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodRef),
	}
	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return nil, g.wrapError(err, "confirm payment intent")
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, models.NewPaymentError(string(pi.Status), "payment was not completed")
	}
	return g.toGatewayIntent(pi), nil
}

// CreateRefund refunds a settled charge, fully when amount is nil
func (g *StripeGateway) CreateRefund(chargeID string, amount *int64, reason *string) (*GatewayRefund, error) {
	params := &stripe.RefundParams{Charge: stripe.String(chargeID)}
	if amount != nil {
		params.Amount = stripe.Int64(*amount)
	}
	if reason != nil {
		params.Reason = stripe.String(*reason)
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, g.wrapError(err, "create refund")
	}
	return &GatewayRefund{
		ID:       r.ID,
		ChargeID: chargeID,
		Amount:   r.Amount,
		Status:   string(r.Status),
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret and decodes the event payload. An unverifiable delivery is
// rejected before any payload field is trusted.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		g.logger.WithError(err).Warn("Webhook signature verification failed")
		return nil, models.NewSignatureInvalidError()
	}

	out := &GatewayEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, models.NewInternalError(err)
		}
		out.Intent = g.toGatewayIntent(&pi)
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, models.NewInternalError(err)
		}
		out.Refund = &GatewayRefund{ChargeID: ch.ID, Amount: ch.AmountRefunded}
		if ch.Refunds != nil && len(ch.Refunds.Data) > 0 {
			latest := ch.Refunds.Data[0]
			out.Refund.ID = latest.ID
			out.Refund.Status = string(latest.Status)
		}
	}
	return out, nil
}

func (g *StripeGateway) toGatewayIntent(pi *stripe.PaymentIntent) *GatewayIntent {
	out := &GatewayIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		BookingID:    pi.Metadata["booking_id"],
	}
	if pi.LatestCharge != nil {
		out.ChargeID = stripe.String(pi.LatestCharge.ID)
		if pmd := pi.LatestCharge.PaymentMethodDetails; pmd != nil && pmd.Card != nil {
			out.CardBrand = stripe.String(string(pmd.Card.Brand))
			out.CardLast4 = stripe.String(pmd.Card.Last4)
		}
	}
	if pi.LastPaymentError != nil {
		out.FailureCode = stripe.String(string(pi.LastPaymentError.Code))
		out.FailureMsg = stripe.String(pi.LastPaymentError.Msg)
	}
	return out
}

// wrapError translates Stripe card errors into PAYMENT_ERROR so handlers
// surface the processor's decline code, and everything else into an
// internal error.
func (g *StripeGateway) wrapError(err error, operation string) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		g.logger.WithFields(logrus.Fields{
			"operation":   operation,
			"stripe_code": stripeErr.Code,
			"stripe_type": stripeErr.Type,
		}).Warn("Stripe request rejected")
		return models.NewPaymentError(string(stripeErr.Code), stripeErr.Msg)
	}
	return models.NewInternalError(err)
}
