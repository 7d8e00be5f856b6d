package shipment

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/carrier"
)

// PortalStore persists the customer-facing projection.
// Declared here to avoid an import cycle with the store implementations.
type PortalStore interface {
	Insert(ctx context.Context, p *PortalShipment) error
	// GetForCustomer scopes the lookup to the owning customer; a row owned by
	// someone else is indistinguishable from a missing one.
	GetForCustomer(ctx context.Context, customerID, shipmentID uuid.UUID) (*PortalShipment, error)
	Update(ctx context.Context, p *PortalShipment) error
}

// CoreStore persists the carrier-authoritative record.
type CoreStore interface {
	Insert(ctx context.Context, c *CoreShipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*CoreShipment, error)
	Update(ctx context.Context, c *CoreShipment) error
}

// SequenceGenerator hands out the numeric sender reference, keyed by sender
// code. External to this subsystem.
type SequenceGenerator interface {
	NextNumericReference(ctx context.Context, senderCode string) (int64, error)
}

// CarrierAPI is the carrier contract this subsystem depends on. All failures
// arrive wrapped in carrier.ErrCarrierRequest.
type CarrierAPI interface {
	CreateShipment(ctx context.Context, req carrier.CreateShipmentRequest) (*carrier.CreateShipmentResponse, error)
	ConfirmShipment(ctx context.Context, req carrier.ConfirmRequest) (*carrier.ConfirmResponse, error)
	ReprintShipmentLabel(ctx context.Context, req carrier.ReprintRequest) (*carrier.LabelResponse, error)
	GetRoutingQuote(ctx context.Context, req carrier.RoutingQuoteRequest) (*carrier.RoutingQuote, error)
	TrackingByParcelID(ctx context.Context, parcelID string) (json.RawMessage, error)
}
