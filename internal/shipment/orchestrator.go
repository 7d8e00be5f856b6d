package shipment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/carrier"
	"github.com/agservizi/parcelport/internal/events"
	"github.com/agservizi/parcelport/internal/reqinfo"
)

// volumetricDivisor is the carrier-standard divisor converting cm³ to a
// billing weight in kg.
const volumetricDivisor = 4000.0

// CarrierSettings is the slice of configuration the orchestrator needs for
// every carrier call.
type CarrierSettings struct {
	SenderCode     string
	SenderName     string
	DepartureDepot string
	// PricingConditions maps network code to the pricing-condition code used
	// when the routing quote does not carry one.
	PricingConditions map[string]string
}

// Orchestrator drives shipment creation against the carrier and persists both
// the core record and the portal projection.
type Orchestrator struct {
	portal    PortalStore
	core      CoreStore
	carrier   CarrierAPI
	sequences SequenceGenerator
	publisher events.Publisher
	settings  CarrierSettings
	clock     func() time.Time
}

func NewOrchestrator(
	portal PortalStore,
	core CoreStore,
	carrierAPI CarrierAPI,
	sequences SequenceGenerator,
	publisher events.Publisher,
	settings CarrierSettings,
) *Orchestrator {
	return &Orchestrator{
		portal:    portal,
		core:      core,
		carrier:   carrierAPI,
		sequences: sequences,
		publisher: publisher,
		settings:  settings,
		clock:     time.Now,
	}
}

// ComputeVolumeM3 derives the parcel volume from dimensions in cm.
func ComputeVolumeM3(lengthCm, widthCm, heightCm float64, parcelCount int) float64 {
	return lengthCm * widthCm * heightCm / 1_000_000.0 * float64(parcelCount)
}

// ComputeVolumetricWeightKg derives the carrier billing weight from
// dimensions in cm.
func ComputeVolumetricWeightKg(lengthCm, widthCm, heightCm float64, parcelCount int) float64 {
	return lengthCm * widthCm * heightCm / volumetricDivisor * float64(parcelCount)
}

// effectiveVolume applies the explicit override only when strictly positive.
func effectiveVolume(in *Intent) float64 {
	if in.VolumeM3 > 0 {
		return in.VolumeM3
	}
	return ComputeVolumeM3(in.LengthCm, in.WidthCm, in.HeightCm, in.ParcelCount)
}

func effectiveVolumetricWeight(in *Intent) float64 {
	if in.VolumetricWeightKg > 0 {
		return in.VolumetricWeightKg
	}
	return ComputeVolumetricWeightKg(in.LengthCm, in.WidthCm, in.HeightCm, in.ParcelCount)
}

// CreateShipment validates the intent, resolves routing, submits the shipment
// to the carrier and persists both records. Confirmation and label retrieval
// run immediately afterwards but are best effort: their failure leaves the
// shipment in confirm_failed and does not fail the creation.
func (o *Orchestrator) CreateShipment(ctx context.Context, ri reqinfo.RequestInfo, intent Intent) (*Created, error) {
	if err := ValidateIntent(&intent); err != nil {
		return nil, err
	}
	if o.settings.SenderCode == "" || o.settings.DepartureDepot == "" {
		return nil, ErrCarrierConfigMissing
	}

	routing := o.resolveRouting(ctx, &intent)

	numericRef, err := o.sequences.NextNumericReference(ctx, o.settings.SenderCode)
	if err != nil {
		return nil, fmt.Errorf("fetching sender reference: %w", err)
	}

	reference := callerReference(intent.Reference)
	if reference == "" {
		reference = BuildReference(o.clock(), o.settings.SenderName, intent.RecipientName, numericRef)
	}

	createReq := o.buildCreateRequest(&intent, routing, reference, numericRef)
	createResp, err := o.carrier.CreateShipment(ctx, createReq)
	if err != nil {
		return nil, fmt.Errorf("creating carrier shipment: %w", err)
	}

	now := o.clock()
	core := &CoreShipment{
		ID:                uuid.New(),
		Status:            StatusCreated,
		CarrierShipmentID: createResp.ShipmentID,
		ParcelID:          createResp.ParcelID,
		TrackingID:        createResp.TrackingID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := o.core.Insert(ctx, core); err != nil {
		return nil, fmt.Errorf("persisting core shipment: %w", err)
	}

	o.confirmAndFetchLabel(ctx, core)

	portal := o.buildPortalRow(ri.CustomerID, &intent, routing, core, reference)
	if err := o.portal.Insert(ctx, portal); err != nil {
		return nil, fmt.Errorf("persisting portal shipment: %w", err)
	}

	if o.publisher != nil {
		event := map[string]interface{}{
			"event": "shipment.created",
			"payload": map[string]interface{}{
				"portalShipmentId": portal.ID,
				"coreShipmentId":   core.ID,
				"customerId":       ri.CustomerID,
				"reference":        reference,
				"status":           core.Status,
			},
		}
		go o.publisher.Publish(context.Background(), portal.ID.String(), event)
	}

	return &Created{
		PortalShipmentID: portal.ID,
		CoreShipmentID:   core.ID,
		Reference:        reference,
		Status:           core.Status,
		ParcelID:         core.ParcelID,
		TrackingID:       core.TrackingID,
		LabelPath:        core.LabelPath,
	}, nil
}

// resolveRouting fills the routing attributes the caller left empty from a
// carrier quote. Resolver failures are logged and swallowed: creation
// proceeds with whatever was supplied explicitly.
func (o *Orchestrator) resolveRouting(ctx context.Context, in *Intent) *RoutingSummary {
	summary := &RoutingSummary{
		Network:          in.Network,
		Service:          in.Service,
		Delivery:         in.Delivery,
		PricingCondition: in.PricingCondition,
	}
	if in.Network != "" && in.Service != "" && in.Delivery != "" && in.PricingCondition != "" {
		return summary
	}

	quote, err := o.carrier.GetRoutingQuote(ctx, carrier.RoutingQuoteRequest{
		SenderCode:         o.settings.SenderCode,
		DepartureDepot:     o.settings.DepartureDepot,
		ParcelCount:        in.ParcelCount,
		WeightKg:           effectiveVolumetricWeight(in),
		VolumeM3:           effectiveVolume(in),
		DestinationZIP:     in.ZIPCode,
		DestinationCountry: in.Country,
		Dimensions: carrier.Dimensions{
			LengthCm: in.LengthCm,
			WidthCm:  in.WidthCm,
			HeightCm: in.HeightCm,
		},
	})
	if err != nil {
		log.Printf("[Shipment] routing quote failed, proceeding with explicit attributes: %v", err)
		return summary
	}

	if summary.Network == "" {
		summary.Network = quote.Network
	}
	if summary.Service == "" {
		summary.Service = quote.Service
	}
	if summary.Delivery == "" {
		summary.Delivery = quote.Delivery
	}
	if summary.PricingCondition == "" {
		summary.PricingCondition = quote.PricingCondition
	}
	// The quote may not carry a pricing condition at all; fall back to the
	// locally configured one for the resolved network.
	if summary.PricingCondition == "" && summary.Network != "" {
		summary.PricingCondition = o.settings.PricingConditions[summary.Network]
	}
	summary.Resolved = true
	return summary
}

// confirmAndFetchLabel attempts confirmation and label retrieval right after
// creation. The shipment survives in confirm_failed when either step fails.
func (o *Orchestrator) confirmAndFetchLabel(ctx context.Context, core *CoreShipment) {
	core.Status = StatusConfirmPending
	if err := o.core.Update(ctx, core); err != nil {
		log.Printf("[Shipment] failed to persist confirm_pending for %s: %v", core.ID, err)
	}

	confirmResp, err := o.carrier.ConfirmShipment(ctx, carrier.ConfirmRequest{
		SenderCode: o.settings.SenderCode,
		ShipmentID: core.CarrierShipmentID,
		ParcelID:   core.ParcelID,
	})
	if err != nil {
		log.Printf("[WARN] [Shipment] confirmation failed for %s, shipment kept unconfirmed: %v", core.ID, err)
		core.Status = StatusConfirmFailed
		core.ExecutionMessage = "confirmation failed"
	} else {
		now := o.clock()
		core.Status = StatusConfirmed
		core.ConfirmedAt = &now
		core.ExecutionCode = confirmResp.ExecutionCode
		core.ExecutionDescription = confirmResp.ExecutionDescription
		core.ExecutionMessage = confirmResp.ExecutionMessage

		label, err := o.carrier.ReprintShipmentLabel(ctx, carrier.ReprintRequest{
			SenderCode: o.settings.SenderCode,
			ShipmentID: core.CarrierShipmentID,
			ParcelID:   core.ParcelID,
		})
		if err != nil {
			log.Printf("[WARN] [Shipment] label retrieval failed for %s: %v", core.ID, err)
		} else {
			core.LabelPath = label.LabelPath
		}
	}

	core.UpdatedAt = o.clock()
	if err := o.core.Update(ctx, core); err != nil {
		log.Printf("[CRITICAL] [Shipment] failed to persist confirmation outcome for %s: %v", core.ID, err)
	}
}

func (o *Orchestrator) buildCreateRequest(in *Intent, routing *RoutingSummary, reference string, numericRef int64) carrier.CreateShipmentRequest {
	req := carrier.CreateShipmentRequest{
		SenderCode:       o.settings.SenderCode,
		DepartureDepot:   o.settings.DepartureDepot,
		Reference:        reference,
		NumericReference: numericRef,
		RecipientName:    in.RecipientName,
		Address:          in.Address,
		ZIPCode:          in.ZIPCode,
		City:             in.City,
		Province:         in.Province,
		Country:          in.Country,
		Email:            in.Email,
		Phone:            in.Phone,
		ParcelCount:      in.ParcelCount,
		WeightKg:         in.WeightKg,
		VolumeM3:         effectiveVolume(in),
		Dimensions: carrier.Dimensions{
			LengthCm: in.LengthCm,
			WidthCm:  in.WidthCm,
			HeightCm: in.HeightCm,
		},
		Network:          routing.Network,
		Service:          routing.Service,
		Delivery:         routing.Delivery,
		PricingCondition: routing.PricingCondition,
		Notes:            in.Notes,
	}
	if in.Insurance != nil {
		req.InsuranceAmount = in.Insurance.Amount
	}
	if in.CashOnDelivery != nil {
		req.CODAmount = in.CashOnDelivery.Amount
		req.CODCurrency = in.CashOnDelivery.Currency
		req.CODPaymentType = in.CashOnDelivery.PaymentType
	}
	return req
}

func (o *Orchestrator) buildPortalRow(customerID uuid.UUID, in *Intent, routing *RoutingSummary, core *CoreShipment, reference string) *PortalShipment {
	meta := Metadata{
		Dimensions: &carrierDimensions{
			LengthCm: in.LengthCm,
			WidthCm:  in.WidthCm,
			HeightCm: in.HeightCm,
		},
		Routing:          routing,
		DeclaredServices: in.DeclaredServices,
	}
	if in.Email != "" || in.Phone != "" {
		meta.Contact = &ContactInfo{Email: in.Email, Phone: in.Phone}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		log.Printf("[Shipment] failed to marshal portal metadata: %v", err)
		metaJSON = []byte("{}")
	}

	now := o.clock()
	return &PortalShipment{
		ID:             uuid.New(),
		CustomerID:     customerID,
		CoreShipmentID: core.ID,
		Reference:      reference,
		Status:         core.Status,
		ParcelID:       core.ParcelID,
		TrackingID:     core.TrackingID,
		LabelPath:      core.LabelPath,
		ParcelCount:    in.ParcelCount,
		WeightKg:       in.WeightKg,
		VolumeM3:       effectiveVolume(in),
		RecipientName:  in.RecipientName,
		Address:        in.Address,
		ZIPCode:        in.ZIPCode,
		City:           in.City,
		Province:       in.Province,
		Country:        in.Country,
		Metadata:       metaJSON,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// callerReference accepts a trimmed caller-supplied reference of at most 80
// characters; anything else falls through to the generated one.
func callerReference(raw string) string {
	ref := strings.TrimSpace(raw)
	if ref == "" || len(ref) > maxReferenceLen {
		return ""
	}
	return ref
}
