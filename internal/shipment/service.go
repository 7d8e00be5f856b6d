package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/carrier"
	"github.com/agservizi/parcelport/internal/reqinfo"
)

// Service exposes the read-side and secondary operations on an existing
// shipment: fetch with lazy sync, tracking refresh and label reprint. Every
// operation resolves the shipment scoped to the calling customer first.
type Service struct {
	portal   PortalStore
	core     CoreStore
	carrier  CarrierAPI
	sync     *SyncEngine
	settings CarrierSettings
	clock    func() time.Time
}

func NewService(portal PortalStore, core CoreStore, carrierAPI CarrierAPI, sync *SyncEngine, settings CarrierSettings) *Service {
	return &Service{
		portal:   portal,
		core:     core,
		carrier:  carrierAPI,
		sync:     sync,
		settings: settings,
		clock:    time.Now,
	}
}

// GetShipment returns the customer's portal row after reconciling it against
// the core record.
func (s *Service) GetShipment(ctx context.Context, ri reqinfo.RequestInfo, shipmentID uuid.UUID) (*PortalShipment, error) {
	p, err := s.ownedShipment(ctx, ri, shipmentID)
	if err != nil {
		return nil, err
	}
	return s.sync.SynchronizePortalRow(ctx, p)
}

// RefreshTracking pulls the carrier's tracking document for the shipment and
// merges it into the portal metadata with a synchronization timestamp.
func (s *Service) RefreshTracking(ctx context.Context, ri reqinfo.RequestInfo, shipmentID uuid.UUID) (*PortalShipment, error) {
	p, err := s.ownedShipment(ctx, ri, shipmentID)
	if err != nil {
		return nil, err
	}
	if p, err = s.sync.SynchronizePortalRow(ctx, p); err != nil {
		return nil, err
	}

	raw, err := s.carrier.TrackingByParcelID(ctx, p.ParcelID)
	if err != nil {
		return nil, fmt.Errorf("refreshing tracking for %s: %w", p.ID, err)
	}

	var meta Metadata
	if len(p.Metadata) > 0 {
		if err := json.Unmarshal(p.Metadata, &meta); err != nil {
			log.Printf("[Shipment] unreadable metadata on %s, rebuilding: %v", p.ID, err)
			meta = Metadata{}
		}
	}
	var tracking map[string]interface{}
	if err := json.Unmarshal(raw, &tracking); err != nil {
		return nil, fmt.Errorf("%w: unexpected tracking payload: %v", carrier.ErrCarrierRequest, err)
	}
	now := s.clock()
	meta.Tracking = tracking
	meta.SynchronizedAt = &now

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata for %s: %w", p.ID, err)
	}
	p.Metadata = metaJSON
	p.UpdatedAt = now
	if err := s.portal.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("persisting tracking refresh for %s: %w", p.ID, err)
	}
	return p, nil
}

// ReprintLabel forces label regeneration at the carrier. The original
// confirmation timestamp is explicitly preserved: a reprint must never look
// like a re-confirmation.
func (s *Service) ReprintLabel(ctx context.Context, ri reqinfo.RequestInfo, shipmentID uuid.UUID) (*PortalShipment, error) {
	p, err := s.ownedShipment(ctx, ri, shipmentID)
	if err != nil {
		return nil, err
	}
	core, err := s.core.GetByID(ctx, p.CoreShipmentID)
	if err != nil {
		return nil, fmt.Errorf("fetching core shipment %s: %w", p.CoreShipmentID, err)
	}

	label, err := s.carrier.ReprintShipmentLabel(ctx, carrier.ReprintRequest{
		SenderCode: s.settings.SenderCode,
		ShipmentID: core.CarrierShipmentID,
		ParcelID:   core.ParcelID,
		ForceLabel: true,
	})
	if err != nil {
		return nil, fmt.Errorf("reprinting label for %s: %w", p.ID, err)
	}

	confirmedAt := core.ConfirmedAt
	core.LabelPath = label.LabelPath
	core.ConfirmedAt = confirmedAt
	core.UpdatedAt = s.clock()
	if err := s.core.Update(ctx, core); err != nil {
		return nil, fmt.Errorf("persisting label path for %s: %w", core.ID, err)
	}

	return s.sync.SynchronizePortalRow(ctx, p)
}

// ownedShipment resolves a shipment scoped to (customer, id). A miss is a
// generic not-found regardless of whether the row exists for someone else.
func (s *Service) ownedShipment(ctx context.Context, ri reqinfo.RequestInfo, shipmentID uuid.UUID) (*PortalShipment, error) {
	p, err := s.portal.GetForCustomer(ctx, ri.CustomerID, shipmentID)
	if err != nil {
		if errors.Is(err, ErrShipmentNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("fetching shipment %s: %w", shipmentID, err)
	}
	return p, nil
}
