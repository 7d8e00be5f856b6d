package payment

import "context"

// SessionPaid is the gateway payment_status value that releases the saga.
const SessionPaid = "paid"

// CheckoutSession is the subset of the gateway session the finalizer
// consumes.
type CheckoutSession struct {
	SessionID       string
	PaymentStatus   string // "paid" when the money is in
	PaymentIntentID string // the gateway transaction reference
}

// Gateway abstracts the payment provider. The only operation this subsystem
// needs is retrieving a checkout session by id.
type Gateway interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
