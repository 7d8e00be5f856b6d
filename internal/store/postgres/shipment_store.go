package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/shipment"
)

// PortalShipmentStore implements shipment.PortalStore on postgres.
type PortalShipmentStore struct {
	db *sql.DB
}

func NewPortalShipmentStore(db *sql.DB) *PortalShipmentStore {
	return &PortalShipmentStore{db: db}
}

func (s *PortalShipmentStore) Insert(ctx context.Context, p *shipment.PortalShipment) error {
	query := `
		INSERT INTO portal_shipments
		(id, customer_id, core_shipment_id, reference, status, parcel_id,
		 tracking_id, label_path, parcel_count, weight_kg, volume_m3,
		 recipient_name, address, zip_code, city, province, country,
		 metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.CustomerID, p.CoreShipmentID, p.Reference, p.Status, p.ParcelID,
		p.TrackingID, p.LabelPath, p.ParcelCount, p.WeightKg, p.VolumeM3,
		p.RecipientName, p.Address, p.ZIPCode, p.City, p.Province, p.Country,
		p.Metadata, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db: failed to insert portal shipment: %w", err)
	}
	return nil
}

// GetForCustomer requires the row's customer_id to match the caller; a miss
// is always shipment.ErrShipmentNotFound so the existence of another
// customer's shipment never leaks.
func (s *PortalShipmentStore) GetForCustomer(ctx context.Context, customerID, shipmentID uuid.UUID) (*shipment.PortalShipment, error) {
	query := `
		SELECT id, customer_id, core_shipment_id, reference, status, parcel_id,
		       tracking_id, label_path, parcel_count, weight_kg, volume_m3,
		       recipient_name, address, zip_code, city, province, country,
		       metadata, last_synced_at, created_at, updated_at
		FROM portal_shipments
		WHERE id = $1 AND customer_id = $2`

	var p shipment.PortalShipment
	var lastSynced sql.NullTime
	err := s.db.QueryRowContext(ctx, query, shipmentID, customerID).Scan(
		&p.ID, &p.CustomerID, &p.CoreShipmentID, &p.Reference, &p.Status, &p.ParcelID,
		&p.TrackingID, &p.LabelPath, &p.ParcelCount, &p.WeightKg, &p.VolumeM3,
		&p.RecipientName, &p.Address, &p.ZIPCode, &p.City, &p.Province, &p.Country,
		&p.Metadata, &lastSynced, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shipment.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("db: failed to fetch portal shipment: %w", err)
	}
	if lastSynced.Valid {
		p.LastSyncedAt = &lastSynced.Time
	}
	return &p, nil
}

func (s *PortalShipmentStore) Update(ctx context.Context, p *shipment.PortalShipment) error {
	query := `
		UPDATE portal_shipments
		SET status = $1, parcel_id = $2, tracking_id = $3, label_path = $4,
		    metadata = $5, last_synced_at = $6, updated_at = $7
		WHERE id = $8`

	_, err := s.db.ExecContext(ctx, query,
		p.Status, p.ParcelID, p.TrackingID, p.LabelPath,
		p.Metadata, p.LastSyncedAt, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("db: failed to update portal shipment: %w", err)
	}
	return nil
}

// CoreShipmentStore implements shipment.CoreStore on postgres.
type CoreShipmentStore struct {
	db *sql.DB
}

func NewCoreShipmentStore(db *sql.DB) *CoreShipmentStore {
	return &CoreShipmentStore{db: db}
}

func (s *CoreShipmentStore) Insert(ctx context.Context, c *shipment.CoreShipment) error {
	query := `
		INSERT INTO core_shipments
		(id, status, carrier_shipment_id, parcel_id, tracking_id, label_path,
		 execution_code, execution_description, execution_message,
		 confirmed_at, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Status, c.CarrierShipmentID, c.ParcelID, c.TrackingID, c.LabelPath,
		c.ExecutionCode, c.ExecutionDescription, c.ExecutionMessage,
		c.ConfirmedAt, c.DeletedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db: failed to insert core shipment: %w", err)
	}
	return nil
}

func (s *CoreShipmentStore) GetByID(ctx context.Context, id uuid.UUID) (*shipment.CoreShipment, error) {
	query := `
		SELECT id, status, carrier_shipment_id, parcel_id, tracking_id, label_path,
		       execution_code, execution_description, execution_message,
		       confirmed_at, deleted_at, created_at, updated_at
		FROM core_shipments
		WHERE id = $1`

	var c shipment.CoreShipment
	var confirmedAt, deletedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Status, &c.CarrierShipmentID, &c.ParcelID, &c.TrackingID, &c.LabelPath,
		&c.ExecutionCode, &c.ExecutionDescription, &c.ExecutionMessage,
		&confirmedAt, &deletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shipment.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("db: failed to fetch core shipment: %w", err)
	}
	if confirmedAt.Valid {
		c.ConfirmedAt = &confirmedAt.Time
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func (s *CoreShipmentStore) Update(ctx context.Context, c *shipment.CoreShipment) error {
	query := `
		UPDATE core_shipments
		SET status = $1, parcel_id = $2, tracking_id = $3, label_path = $4,
		    execution_code = $5, execution_description = $6, execution_message = $7,
		    confirmed_at = $8, deleted_at = $9, updated_at = $10
		WHERE id = $11`

	_, err := s.db.ExecContext(ctx, query,
		c.Status, c.ParcelID, c.TrackingID, c.LabelPath,
		c.ExecutionCode, c.ExecutionDescription, c.ExecutionMessage,
		c.ConfirmedAt, c.DeletedAt, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("db: failed to update core shipment: %w", err)
	}
	return nil
}
