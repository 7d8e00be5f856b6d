package shipment

import (
	"time"

	"github.com/google/uuid"
)

// Normalized shipment statuses. The confirmation step is an explicit state
// rather than a swallowed error so that a failed confirmation can be retried
// and rendered.
const (
	StatusCreated        = "created"
	StatusConfirmPending = "confirm_pending"
	StatusConfirmed      = "confirmed"
	StatusConfirmFailed  = "confirm_failed"
	StatusCancelled      = "cancelled"
)

// CoreShipment is the carrier's authoritative record. Only the
// carrier-integration layer mutates it; the portal projection is refreshed
// from it and never writes back.
type CoreShipment struct {
	ID                   uuid.UUID
	Status               string
	CarrierShipmentID    string
	ParcelID             string
	TrackingID           string
	LabelPath            string
	ExecutionCode        string
	ExecutionDescription string
	ExecutionMessage     string
	ConfirmedAt          *time.Time
	DeletedAt            *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PortalShipment is the customer-facing denormalized projection, 1:1 with a
// CoreShipment. Created once at shipment creation, refreshed lazily on read.
type PortalShipment struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	CoreShipmentID uuid.UUID
	Reference      string
	Status         string
	ParcelID       string
	TrackingID     string
	LabelPath      string
	ParcelCount    int
	WeightKg       float64
	VolumeM3       float64
	RecipientName  string
	Address        string
	ZIPCode        string
	City           string
	Province       string
	Country        string
	Metadata       []byte // JSON: dimensions, routing suggestion, contact info, declared services
	LastSyncedAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MoneyAmount is an optional declared amount with its ISO currency.
type MoneyAmount struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CashOnDelivery describes a COD collection request.
type CashOnDelivery struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PaymentType string  `json:"paymentType"` // 1-2 alphanumeric carrier code
	Mandatory   bool    `json:"mandatory"`
}

// Intent is the shipment the customer paid for. It is serialized into the
// pending-payment row at checkout and decoded again by the finalizer.
type Intent struct {
	RecipientName string `json:"recipientName"`
	Address       string `json:"address"`
	ZIPCode       string `json:"zipCode"`
	City          string `json:"city"`
	Province      string `json:"province,omitempty"`
	Country       string `json:"country,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`

	ParcelCount int     `json:"parcelCount"`
	WeightKg    float64 `json:"weightKg"`
	LengthCm    float64 `json:"lengthCm"`
	WidthCm     float64 `json:"widthCm"`
	HeightCm    float64 `json:"heightCm"`

	// Explicit overrides; used only when strictly positive.
	VolumeM3           float64 `json:"volumeM3,omitempty"`
	VolumetricWeightKg float64 `json:"volumetricWeightKg,omitempty"`

	// Routing attributes; resolved from the carrier quote when empty.
	Network          string `json:"network,omitempty"`
	Service          string `json:"service,omitempty"`
	Delivery         string `json:"delivery,omitempty"`
	PricingCondition string `json:"pricingCondition,omitempty"`

	// Caller-supplied alphanumeric reference, overrides the generated one.
	Reference string `json:"reference,omitempty"`

	Insurance        *MoneyAmount    `json:"insurance,omitempty"`
	CashOnDelivery   *CashOnDelivery `json:"cashOnDelivery,omitempty"`
	DeclaredServices []string        `json:"declaredServices,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// Created is the orchestrator's result: both persisted rows' identifiers plus
// the fields callers render immediately.
type Created struct {
	PortalShipmentID uuid.UUID
	CoreShipmentID   uuid.UUID
	Reference        string
	Status           string
	ParcelID         string
	TrackingID       string
	LabelPath        string
}

// Metadata is the free-form JSON stored on the portal row.
type Metadata struct {
	Dimensions       *carrierDimensions     `json:"dimensions,omitempty"`
	Routing          *RoutingSummary        `json:"routing,omitempty"`
	Contact          *ContactInfo           `json:"contact,omitempty"`
	DeclaredServices []string               `json:"declaredServices,omitempty"`
	Tracking         map[string]interface{} `json:"tracking,omitempty"`
	SynchronizedAt   *time.Time             `json:"synchronizedAt,omitempty"`
}

type carrierDimensions struct {
	LengthCm float64 `json:"lengthCm"`
	WidthCm  float64 `json:"widthCm"`
	HeightCm float64 `json:"heightCm"`
}

// RoutingSummary snapshots the routing attributes the shipment was created
// with, whether explicit or resolved from the carrier quote.
type RoutingSummary struct {
	Network          string `json:"network,omitempty"`
	Service          string `json:"service,omitempty"`
	Delivery         string `json:"delivery,omitempty"`
	PricingCondition string `json:"pricingCondition,omitempty"`
	Resolved         bool   `json:"resolved"` // true when any attribute came from the quote
}

type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}
