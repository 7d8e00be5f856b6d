package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/agservizi/parcelport/internal/reqinfo"
	"github.com/agservizi/parcelport/internal/shipment"
)

// Messages surfaced to the caller. External and terminal failures hide the
// internal detail behind these.
const (
	msgConfirmed        = "payment confirmed"
	msgAlreadyPaid      = "payment already confirmed"
	msgInProgress       = "payment update in progress, retry shortly"
	msgNotYetConfirmed  = "payment not yet confirmed"
	msgGatewayTrouble   = "payment verification is temporarily unavailable, retry shortly"
	msgContactSupport   = "something went wrong with this payment, please contact support"
	msgMissingSession   = "payment has no checkout session yet"
	msgAlreadyTerminal  = "payment is closed"
)

// ShipmentCreator is the slice of the shipment orchestrator the saga needs.
type ShipmentCreator interface {
	CreateShipment(ctx context.Context, ri reqinfo.RequestInfo, intent shipment.Intent) (*shipment.Created, error)
}

// FinalizeResult is what the caller gets back. Message is always safe to
// show; the interesting detail is in the logs or on the payment row.
type FinalizeResult struct {
	Status   Status
	Payment  *PendingPayment
	Shipment *shipment.Created
	Message  string
}

// Finalizer drives the payment-to-shipment saga: claim the payment, confirm
// it with the gateway, create the shipment, record the outcome. The CAS on
// the status column is the correctness primitive; singleflight only spares
// redundant gateway calls when a webhook and a poll race on the same
// reference.
type Finalizer struct {
	payments  *StateMachine
	store     Store
	gateway   Gateway
	shipments ShipmentCreator

	sf singleflight.Group
}

func NewFinalizer(payments *StateMachine, store Store, gateway Gateway, shipments ShipmentCreator) *Finalizer {
	return &Finalizer{
		payments:  payments,
		store:     store,
		gateway:   gateway,
		shipments: shipments,
	}
}

// Finalize runs the saga for one payment row. The row may be stale: the CAS
// decides who actually advances it. Under concurrent calls for the same
// reference, at most one shipment is ever created.
func (f *Finalizer) Finalize(ctx context.Context, ri reqinfo.RequestInfo, p *PendingPayment) (*FinalizeResult, error) {
	key := "finalize_" + p.Reference
	v, err, _ := f.sf.Do(key, func() (interface{}, error) {
		return f.finalize(ctx, ri, p)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FinalizeResult), nil
}

func (f *Finalizer) finalize(ctx context.Context, ri reqinfo.RequestInfo, p *PendingPayment) (*FinalizeResult, error) {
	// 1. Terminal rows are a no-op; finalize is idempotent.
	if p.Status != StatusPending && p.Status != StatusProcessing {
		msg := msgAlreadyTerminal
		if p.Status == StatusPaid {
			msg = msgAlreadyPaid
		}
		return &FinalizeResult{Status: p.Status, Payment: p, Message: msg}, nil
	}

	// 2. Claim the payment. Losing the CAS means another caller is already
	// advancing it; report the current state instead of doing work twice.
	if p.Status == StatusPending {
		ok, err := f.payments.TransitionStatus(ctx, p.ID, StatusPending, StatusProcessing)
		if err != nil {
			return nil, fmt.Errorf("claiming payment %s: %w", p.Reference, err)
		}
		if !ok {
			current, err := f.store.GetByID(ctx, p.ID)
			if err != nil {
				return nil, fmt.Errorf("re-reading contested payment %s: %w", p.Reference, err)
			}
			msg := msgInProgress
			if current.Status == StatusPaid {
				msg = msgAlreadyPaid
			}
			return &FinalizeResult{Status: current.Status, Payment: current, Message: msg}, nil
		}
		p.Status = StatusProcessing
	}

	// 3. Without a gateway session there is nothing to confirm against.
	// Roll back and fail loudly; retrying is fine once a session exists.
	if p.GatewaySessionID == "" {
		f.rollbackToPending(ctx, p)
		return &FinalizeResult{Status: StatusPending, Payment: p, Message: msgMissingSession}, ErrMissingSession
	}

	// 4. Ask the gateway what happened to the session.
	session, err := f.gateway.GetCheckoutSession(ctx, p.GatewaySessionID)
	if err != nil {
		if IsRetryable(err) {
			log.Printf("[WARN] [Finalizer] gateway lookup failed for %s, rolled back: %v", p.Reference, err)
			f.rollbackToPending(ctx, p)
			return &FinalizeResult{Status: StatusPending, Payment: p, Message: msgGatewayTrouble}, nil
		}
		// The gateway answered and the session is unusable; retrying will
		// never succeed.
		log.Printf("[Finalizer] unrecoverable gateway failure for %s: %v", p.Reference, err)
		f.markFailed(ctx, p, fmt.Sprintf("gateway session lookup failed: %v", err))
		return &FinalizeResult{Status: StatusFailed, Payment: p, Message: msgContactSupport}, nil
	}

	// 5. Money not in yet: release the claim so a later call can retry.
	if session.PaymentStatus != SessionPaid {
		f.rollbackToPending(ctx, p)
		return &FinalizeResult{Status: StatusPending, Payment: p, Message: msgNotYetConfirmed}, nil
	}

	// 6. Decode the shipment intent. A payment whose payload cannot be read
	// can never complete; this is terminal.
	var intent shipment.Intent
	if err := json.Unmarshal(p.IntentJSON, &intent); err != nil {
		log.Printf("[Finalizer] undecodable shipment intent on %s: %v", p.Reference, err)
		f.markFailed(ctx, p, fmt.Sprintf("shipment intent decode failed: %v", err))
		return &FinalizeResult{Status: StatusFailed, Payment: p, Message: msgContactSupport}, nil
	}

	// 7. Create the shipment. There is no compensating cancel at the
	// carrier: a failure past this point needs an operator.
	created, err := f.shipments.CreateShipment(ctx, ri, intent)
	if err != nil {
		log.Printf("[Finalizer] shipment creation failed for %s: %v", p.Reference, err)
		f.markFailed(ctx, p, fmt.Sprintf("shipment creation failed: %v", err))
		return &FinalizeResult{Status: StatusFailed, Payment: p, Message: msgContactSupport}, nil
	}

	// 8. Record the outcome. If this write fails the carrier shipment
	// exists while the payment stays processing; the reconciler surfaces it.
	if err := f.payments.MarkPaid(ctx, p.ID, created.PortalShipmentID, created.CoreShipmentID, session.PaymentIntentID); err != nil {
		log.Printf("[CRITICAL] [Finalizer] shipment %s created but payment %s could not be marked paid: %v",
			created.PortalShipmentID, p.Reference, err)
		return nil, fmt.Errorf("payment succeeded but bookkeeping failed: %w", err)
	}

	p.Status = StatusPaid
	p.GatewayTxnID = session.PaymentIntentID
	p.PortalShipmentID = &created.PortalShipmentID
	p.CoreShipmentID = &created.CoreShipmentID
	return &FinalizeResult{Status: StatusPaid, Payment: p, Shipment: created, Message: msgConfirmed}, nil
}

// rollbackToPending releases the processing claim. Failing to release is not
// fatal: the reconciler picks up stuck processing rows.
func (f *Finalizer) rollbackToPending(ctx context.Context, p *PendingPayment) {
	ok, err := f.payments.TransitionStatus(ctx, p.ID, StatusProcessing, StatusPending)
	if err != nil {
		log.Printf("[WARN] [Finalizer] rollback of %s failed: %v", p.Reference, err)
		return
	}
	if ok {
		p.Status = StatusPending
	}
}

func (f *Finalizer) markFailed(ctx context.Context, p *PendingPayment, message string) {
	if err := f.payments.MarkFailed(ctx, p.ID, message); err != nil {
		log.Printf("[CRITICAL] [Finalizer] could not mark %s failed: %v", p.Reference, err)
		return
	}
	p.Status = StatusFailed
	p.ErrorMessage = &message
}
