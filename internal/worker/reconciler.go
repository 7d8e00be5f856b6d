package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/agservizi/parcelport/internal/payment"
)

// Reconciler watches for payments stuck in processing: the finalizer crashed
// between claiming the payment and recording an outcome. It re-reads the
// gateway session and either releases the claim or alerts an operator.
//
// A payment that is paid at the gateway but has no shipment ids on the row is
// never auto-resolved: a carrier shipment may or may not exist, and there is
// no compensating cancel. That case is surfaced loudly and left alone.
type Reconciler struct {
	store   payment.Store
	gateway payment.Gateway

	interval    time.Duration
	cutoff      time.Duration
	batchSize   int
	workerCount int
}

func NewReconciler(store payment.Store, gateway payment.Gateway) *Reconciler {
	return &Reconciler{
		store:       store,
		gateway:     gateway,
		interval:    5 * time.Minute,
		cutoff:      5 * time.Minute,
		batchSize:   50,
		workerCount: 5,
	}
}

// Start runs the worker loop. Blocking call; cancel the context to stop.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	log.Printf("[Reconciler] worker started, polling every %v", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Reconciler] context cancelled, stopping")
			return
		case <-ticker.C:
			r.processBatch(ctx)
		}
	}
}

func (r *Reconciler) processBatch(ctx context.Context) {
	stuck, err := r.store.GetStuckProcessing(ctx, r.batchSize, r.cutoff)
	if err != nil {
		log.Printf("[Reconciler] db error: %v", err)
		return
	}
	if len(stuck) == 0 {
		return
	}
	log.Printf("[Reconciler] processing %d stuck payments", len(stuck))

	jobs := make(chan *payment.PendingPayment, len(stuck))
	var wg sync.WaitGroup
	for w := 0; w < r.workerCount; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for p := range jobs {
				if err := r.reconcile(ctx, p); err != nil {
					log.Printf("[Reconciler] worker %d failed on %s: %v", id, p.Reference, err)
				}
			}
		}(w)
	}
	for _, p := range stuck {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
}

// reconcile resolves one stuck processing payment.
func (r *Reconciler) reconcile(ctx context.Context, p *payment.PendingPayment) error {
	// No session means the claim happened before a checkout session was
	// attached; releasing it is safe, nothing external can have moved.
	if p.GatewaySessionID == "" {
		return r.release(ctx, p, "stuck processing with no gateway session")
	}

	session, err := r.gateway.GetCheckoutSession(ctx, p.GatewaySessionID)
	if err != nil {
		if payment.IsRetryable(err) {
			// Gateway is down; leave the row for the next cycle.
			return err
		}
		// The session is unreadable forever: no money can have moved.
		log.Printf("[Reconciler] payment %s has an invalid gateway session, marking failed: %v", p.Reference, err)
		return r.store.MarkFailed(ctx, p.ID, "reconciler: gateway session invalid")
	}

	if session.PaymentStatus != payment.SessionPaid {
		// Money never arrived; release the claim so finalize can run again.
		return r.release(ctx, p, "gateway session not paid")
	}

	// Paid at the gateway. If the saga got far enough to record both shipment
	// ids, only the final bookkeeping write was lost; redo it.
	if p.PortalShipmentID != nil && p.CoreShipmentID != nil {
		log.Printf("[Reconciler] completing interrupted finalize for %s", p.Reference)
		return r.store.MarkPaid(ctx, p.ID, *p.PortalShipmentID, *p.CoreShipmentID, session.PaymentIntentID, time.Now())
	}

	// Paid but no shipment ids on the row. A carrier shipment may exist that
	// the payment row knows nothing about. Only an operator can reconcile
	// this; keep the row and keep shouting.
	log.Printf("[CRITICAL] [Reconciler] payment %s is paid at the gateway (txn %s) but stuck in processing; manual reconciliation required",
		p.Reference, session.PaymentIntentID)
	return nil
}

func (r *Reconciler) release(ctx context.Context, p *payment.PendingPayment, reason string) error {
	ok, err := r.store.TransitionStatus(ctx, p.ID, payment.StatusProcessing, payment.StatusPending)
	if err != nil {
		return err
	}
	if ok {
		log.Printf("[Reconciler] released payment %s back to pending (%s)", p.Reference, reason)
	}
	return nil
}
