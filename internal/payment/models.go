package payment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle of a pending payment.
// pending -> processing -> paid; processing -> pending (rollback);
// pending|processing -> failed (terminal); pending -> cancelled (terminal).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from the status.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

// PendingPayment is one row per checkout attempt. Reference is the
// customer-visible, unguessable identifier; everything money-related is in
// integer minor units.
type PendingPayment struct {
	ID         uuid.UUID
	Reference  string
	CustomerID uuid.UUID
	Status     Status

	AmountCents int64
	Currency    string
	TierIndex   int
	TierLabel   string

	// IntentJSON is the serialized shipment intent captured at checkout and
	// decoded by the finalizer once the payment is confirmed.
	IntentJSON []byte

	GatewaySessionID string
	GatewayTxnID     string

	PortalShipmentID *uuid.UUID
	CoreShipmentID   *uuid.UUID

	PaidAt       *time.Time
	ErrorMessage *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
