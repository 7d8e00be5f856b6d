package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agservizi/parcelport/internal/pricing"
)

// PricingTierStore implements pricing.TierStore on postgres. Tiers come back
// in stored order; the matcher depends on that.
type PricingTierStore struct {
	db *sql.DB
}

func NewPricingTierStore(db *sql.DB) *PricingTierStore {
	return &PricingTierStore{db: db}
}

func (s *PricingTierStore) ListTiers(ctx context.Context) ([]pricing.Tier, error) {
	query := `
		SELECT tier_index, label, max_weight_kg, max_volume_m3, price
		FROM pricing_tiers
		ORDER BY tier_index ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db: failed to fetch pricing tiers: %w", err)
	}
	defer rows.Close()

	var tiers []pricing.Tier
	for rows.Next() {
		var t pricing.Tier
		var maxWeight, maxVolume sql.NullFloat64
		if err := rows.Scan(&t.Index, &t.Label, &maxWeight, &maxVolume, &t.Price); err != nil {
			return nil, fmt.Errorf("db: failed to scan pricing tier: %w", err)
		}
		if maxWeight.Valid {
			t.MaxWeightKg = &maxWeight.Float64
		}
		if maxVolume.Valid {
			t.MaxVolumeM3 = &maxVolume.Float64
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// SequenceStore implements shipment.SequenceGenerator: one monotonically
// increasing numeric reference per sender code.
type SequenceStore struct {
	db *sql.DB
}

func NewSequenceStore(db *sql.DB) *SequenceStore {
	return &SequenceStore{db: db}
}

func (s *SequenceStore) NextNumericReference(ctx context.Context, senderCode string) (int64, error) {
	query := `
		INSERT INTO sender_references (sender_code, last_value)
		VALUES ($1, 1)
		ON CONFLICT (sender_code)
		DO UPDATE SET last_value = sender_references.last_value + 1
		RETURNING last_value`

	var next int64
	if err := s.db.QueryRowContext(ctx, query, senderCode).Scan(&next); err != nil {
		return 0, fmt.Errorf("db: failed to advance sender reference: %w", err)
	}
	return next, nil
}
