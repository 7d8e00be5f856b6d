package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store handles persistence for pending payments.
// Placed here so the state machine and the postgres implementation do not
// import each other.
type Store interface {
	Insert(ctx context.Context, p *PendingPayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*PendingPayment, error)
	GetByReference(ctx context.Context, reference string) (*PendingPayment, error)

	// TransitionStatus performs the conditional update
	// UPDATE ... WHERE id = $id AND status = $from and reports whether the
	// guard matched. This is the system's only concurrency primitive.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)

	// AttachGatewaySession stores the checkout session id once the gateway
	// session has been opened for this payment.
	AttachGatewaySession(ctx context.Context, id uuid.UUID, sessionID string) error

	MarkPaid(ctx context.Context, id uuid.UUID, portalShipmentID, coreShipmentID uuid.UUID, gatewayTxnID string, paidAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	MarkCancelled(ctx context.Context, reference string) error

	// GetStuckProcessing fetches payments that have sat in processing longer
	// than the cutoff, for the reconciliation worker.
	GetStuckProcessing(ctx context.Context, limit int, olderThan time.Duration) ([]*PendingPayment, error)
}
