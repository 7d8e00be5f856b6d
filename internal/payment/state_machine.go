package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/pricing"
	"github.com/agservizi/parcelport/internal/shipment"
)

// StateMachine owns the lifecycle of a pending payment. All advancement goes
// through the store's conditional update; the unconditional marks are the
// terminal bookkeeping writes.
type StateMachine struct {
	store Store
	clock func() time.Time
}

func NewStateMachine(store Store) *StateMachine {
	return &StateMachine{store: store, clock: time.Now}
}

// CreatePendingPayment opens a pending row for the selected tier and the
// shipment the customer intends to buy. The amount is the tier price in
// integer minor units; a price that is not positive or that rounds to zero
// is rejected before anything is persisted.
func (sm *StateMachine) CreatePendingPayment(ctx context.Context, customerID uuid.UUID, tier pricing.Tier, intent shipment.Intent, currency string) (*PendingPayment, error) {
	if tier.Price <= 0 {
		return nil, ErrInvalidTierPrice
	}
	amount := int64(math.Round(tier.Price * 100))
	if amount <= 0 {
		return nil, ErrZeroAmount
	}

	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("serializing shipment intent: %w", err)
	}

	now := sm.clock()
	p := &PendingPayment{
		ID:          uuid.New(),
		Reference:   newPaymentReference(),
		CustomerID:  customerID,
		Status:      StatusPending,
		AmountCents: amount,
		Currency:    currency,
		TierIndex:   tier.Index,
		TierLabel:   tier.Label,
		IntentJSON:  intentJSON,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sm.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting pending payment: %w", err)
	}
	return p, nil
}

// TransitionStatus is the compare-and-swap on the status column: it succeeds
// for exactly one caller when several race out of the same state.
func (sm *StateMachine) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	return sm.store.TransitionStatus(ctx, id, from, to)
}

// MarkPaid finalizes the payment with both shipment ids and the gateway
// transaction reference.
func (sm *StateMachine) MarkPaid(ctx context.Context, id uuid.UUID, portalShipmentID, coreShipmentID uuid.UUID, gatewayTxnID string) error {
	return sm.store.MarkPaid(ctx, id, portalShipmentID, coreShipmentID, gatewayTxnID, sm.clock())
}

// MarkFailed moves the payment to its terminal failed state, keeping the
// causing message for operators.
func (sm *StateMachine) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return sm.store.MarkFailed(ctx, id, message)
}

// MarkCancelled cancels a payment by its public reference.
func (sm *StateMachine) MarkCancelled(ctx context.Context, reference string) error {
	return sm.store.MarkCancelled(ctx, reference)
}

// newPaymentReference generates the 26-character uppercase hex reference the
// customer sees. 13 random bytes keep it unguessable.
func newPaymentReference() string {
	b := make([]byte, 13)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process has bigger problems; fall
		// back to a uuid-derived reference rather than crash checkout.
		return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:26]
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
