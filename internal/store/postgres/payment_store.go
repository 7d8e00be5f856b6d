package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/payment"
)

// PaymentStore implements payment.Store on postgres.
type PaymentStore struct {
	db *sql.DB
}

func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentColumns = `
	id, reference, customer_id, status, amount_cents, currency,
	tier_index, tier_label, intent_json, gateway_session_id, gateway_txn_id,
	portal_shipment_id, core_shipment_id, paid_at, error_message,
	created_at, updated_at`

func (s *PaymentStore) Insert(ctx context.Context, p *payment.PendingPayment) error {
	query := `
		INSERT INTO pending_payments
		(id, reference, customer_id, status, amount_cents, currency,
		 tier_index, tier_label, intent_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Reference,
		p.CustomerID,
		p.Status,
		p.AmountCents,
		p.Currency,
		p.TierIndex,
		p.TierLabel,
		p.IntentJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db: failed to insert pending payment: %w", err)
	}
	return nil
}

func (s *PaymentStore) GetByID(ctx context.Context, id uuid.UUID) (*payment.PendingPayment, error) {
	query := `SELECT` + paymentColumns + ` FROM pending_payments WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *PaymentStore) GetByReference(ctx context.Context, reference string) (*payment.PendingPayment, error) {
	query := `SELECT` + paymentColumns + ` FROM pending_payments WHERE reference = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, reference))
}

// TransitionStatus is the compare-and-swap: the WHERE clause carries the
// expected current status, so exactly one of several racing callers sees a
// matched row.
func (s *PaymentStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to payment.Status) (bool, error) {
	query := `
		UPDATE pending_payments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	res, err := s.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("db: failed to transition payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db: failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func (s *PaymentStore) AttachGatewaySession(ctx context.Context, id uuid.UUID, sessionID string) error {
	query := `
		UPDATE pending_payments
		SET gateway_session_id = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := s.db.ExecContext(ctx, query, sessionID, id)
	if err != nil {
		return fmt.Errorf("db: failed to attach gateway session: %w", err)
	}
	return nil
}

func (s *PaymentStore) MarkPaid(ctx context.Context, id uuid.UUID, portalShipmentID, coreShipmentID uuid.UUID, gatewayTxnID string, paidAt time.Time) error {
	query := `
		UPDATE pending_payments
		SET status = $1,
		    portal_shipment_id = $2,
		    core_shipment_id = $3,
		    gateway_txn_id = $4,
		    paid_at = $5,
		    updated_at = NOW()
		WHERE id = $6`

	_, err := s.db.ExecContext(ctx, query, payment.StatusPaid, portalShipmentID, coreShipmentID, gatewayTxnID, paidAt, id)
	if err != nil {
		return fmt.Errorf("db: failed to mark payment paid: %w", err)
	}
	return nil
}

func (s *PaymentStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE pending_payments
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3`

	_, err := s.db.ExecContext(ctx, query, payment.StatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("db: failed to mark payment failed: %w", err)
	}
	return nil
}

func (s *PaymentStore) MarkCancelled(ctx context.Context, reference string) error {
	query := `
		UPDATE pending_payments
		SET status = $1, updated_at = NOW()
		WHERE reference = $2`

	_, err := s.db.ExecContext(ctx, query, payment.StatusCancelled, reference)
	if err != nil {
		return fmt.Errorf("db: failed to mark payment cancelled: %w", err)
	}
	return nil
}

// GetStuckProcessing fetches payments sitting in processing longer than the
// cutoff, oldest first, for the reconciliation worker.
func (s *PaymentStore) GetStuckProcessing(ctx context.Context, limit int, olderThan time.Duration) ([]*payment.PendingPayment, error) {
	cutOff := time.Now().Add(-olderThan)
	query := `SELECT` + paymentColumns + `
		FROM pending_payments
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, payment.StatusProcessing, cutOff, limit)
	if err != nil {
		return nil, fmt.Errorf("db: failed to fetch stuck payments: %w", err)
	}
	defer rows.Close()

	var out []*payment.PendingPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PaymentStore) scanOne(row *sql.Row) (*payment.PendingPayment, error) {
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrPaymentNotFound
	}
	return p, err
}

func scanPayment(row rowScanner) (*payment.PendingPayment, error) {
	var p payment.PendingPayment
	var sessionID, txnID sql.NullString
	var portalID, coreID uuid.NullUUID
	var paidAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Reference,
		&p.CustomerID,
		&p.Status,
		&p.AmountCents,
		&p.Currency,
		&p.TierIndex,
		&p.TierLabel,
		&p.IntentJSON,
		&sessionID,
		&txnID,
		&portalID,
		&coreID,
		&paidAt,
		&errMsg,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db: failed to scan pending payment: %w", err)
	}

	p.GatewaySessionID = sessionID.String
	p.GatewayTxnID = txnID.String
	if portalID.Valid {
		p.PortalShipmentID = &portalID.UUID
	}
	if coreID.Valid {
		p.CoreShipmentID = &coreID.UUID
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	if errMsg.Valid {
		p.ErrorMessage = &errMsg.String
	}
	return &p, nil
}
