package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// StripeGateway implements Gateway on Stripe Checkout Sessions.
type StripeGateway struct {
	client *client.API
}

func NewStripeGateway(apiKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{client: sc}
}

// GetCheckoutSession retrieves the session by id and maps it onto the domain
// view. We use sg.client, not the package-level globals.
func (sg *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := sg.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, sg.mapStripeError(err)
	}

	out := &CheckoutSession{
		SessionID:     sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}

// mapStripeError converts stripe-go errors into domain errors so no stripe
// types leak above this file. Provider outages map to the retryable kind,
// a session Stripe does not recognize maps to the terminal kind.
func (sg *StripeGateway) mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return ErrGatewayUnavailable
		}
		switch stripeErr.Code {
		case stripe.ErrorCodeRateLimit, stripe.ErrorCodeLockTimeout:
			return ErrGatewayUnavailable
		case stripe.ErrorCodeResourceMissing:
			return ErrSessionInvalid
		}
		if stripeErr.HTTPStatusCode == http.StatusNotFound {
			return ErrSessionInvalid
		}
	}
	return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}
