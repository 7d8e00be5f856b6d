package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/carrier"
	"github.com/agservizi/parcelport/internal/reqinfo"
)

func testRequestInfo(customerID uuid.UUID) reqinfo.RequestInfo {
	return reqinfo.RequestInfo{CustomerID: customerID, IP: "127.0.0.1", UserAgent: "test"}
}

// --- MOCKS ---

type mockPortalStore struct {
	inserted *PortalShipment
	updated  *PortalShipment
	row      *PortalShipment
}

func (m *mockPortalStore) Insert(ctx context.Context, p *PortalShipment) error {
	m.inserted = p
	return nil
}

func (m *mockPortalStore) GetForCustomer(ctx context.Context, customerID, shipmentID uuid.UUID) (*PortalShipment, error) {
	if m.row == nil || m.row.ID != shipmentID || m.row.CustomerID != customerID {
		return nil, ErrShipmentNotFound
	}
	cp := *m.row
	return &cp, nil
}

func (m *mockPortalStore) Update(ctx context.Context, p *PortalShipment) error {
	m.updated = p
	return nil
}

type mockCoreStore struct {
	inserted *CoreShipment
	row      *CoreShipment
	updates  []string // statuses seen on Update, in order
}

func (m *mockCoreStore) Insert(ctx context.Context, c *CoreShipment) error {
	m.inserted = c
	m.row = c
	return nil
}

func (m *mockCoreStore) GetByID(ctx context.Context, id uuid.UUID) (*CoreShipment, error) {
	if m.row == nil || m.row.ID != id {
		return nil, errors.New("core shipment not found")
	}
	cp := *m.row
	return &cp, nil
}

func (m *mockCoreStore) Update(ctx context.Context, c *CoreShipment) error {
	m.updates = append(m.updates, c.Status)
	m.row = c
	return nil
}

type mockCarrier struct {
	createReq   *carrier.CreateShipmentRequest
	createErr   error
	confirmErr  error
	reprintReq  *carrier.ReprintRequest
	reprintErr  error
	quote       *carrier.RoutingQuote
	quoteErr    error
	tracking    json.RawMessage
	trackingErr error
}

func (m *mockCarrier) CreateShipment(ctx context.Context, req carrier.CreateShipmentRequest) (*carrier.CreateShipmentResponse, error) {
	m.createReq = &req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &carrier.CreateShipmentResponse{
		ShipmentID: "SHIP-1",
		ParcelID:   "PARCEL-1",
		TrackingID: "TRACK-1",
	}, nil
}

func (m *mockCarrier) ConfirmShipment(ctx context.Context, req carrier.ConfirmRequest) (*carrier.ConfirmResponse, error) {
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	return &carrier.ConfirmResponse{ExecutionCode: "OK"}, nil
}

func (m *mockCarrier) ReprintShipmentLabel(ctx context.Context, req carrier.ReprintRequest) (*carrier.LabelResponse, error) {
	m.reprintReq = &req
	if m.reprintErr != nil {
		return nil, m.reprintErr
	}
	return &carrier.LabelResponse{LabelPath: "/labels/SHIP-1.pdf"}, nil
}

func (m *mockCarrier) GetRoutingQuote(ctx context.Context, req carrier.RoutingQuoteRequest) (*carrier.RoutingQuote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	if m.quote == nil {
		// The real client never returns (nil, nil); mirror that contract.
		return &carrier.RoutingQuote{}, nil
	}
	return m.quote, nil
}

func (m *mockCarrier) TrackingByParcelID(ctx context.Context, parcelID string) (json.RawMessage, error) {
	if m.trackingErr != nil {
		return nil, m.trackingErr
	}
	return m.tracking, nil
}

type mockSequence struct {
	next int64
	err  error
}

func (m *mockSequence) NextNumericReference(ctx context.Context, senderCode string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.next, nil
}

// --- HELPERS ---

func testSettings() CarrierSettings {
	return CarrierSettings{
		SenderCode:        "AG001",
		SenderName:        "Maria Luca",
		DepartureDepot:    "NA1",
		PricingConditions: map[string]string{"N01": "P10"},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testDay = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestOrchestrator(portal *mockPortalStore, core *mockCoreStore, api *mockCarrier, seq *mockSequence) *Orchestrator {
	o := NewOrchestrator(portal, core, api, seq, nil, testSettings())
	o.clock = fixedClock(testDay)
	return o
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- TESTS ---

func TestComputeVolumeAndVolumetricWeight(t *testing.T) {
	if v := ComputeVolumeM3(30, 20, 10, 1); !almostEqual(v, 0.006) {
		t.Errorf("volume = %v, want 0.006", v)
	}
	if v := ComputeVolumeM3(30, 20, 10, 3); !almostEqual(v, 0.018) {
		t.Errorf("volume x3 = %v, want 0.018", v)
	}
	if w := ComputeVolumetricWeightKg(30, 20, 10, 1); !almostEqual(w, 1.5) {
		t.Errorf("volumetric weight = %v, want 1.5", w)
	}
	if w := ComputeVolumetricWeightKg(30, 20, 10, 2); !almostEqual(w, 3.0) {
		t.Errorf("volumetric weight x2 = %v, want 3.0", w)
	}
}

func TestEffectiveOverrides(t *testing.T) {
	in := &Intent{LengthCm: 30, WidthCm: 20, HeightCm: 10, ParcelCount: 1}
	if v := effectiveVolume(in); !almostEqual(v, 0.006) {
		t.Errorf("computed volume = %v, want 0.006", v)
	}
	in.VolumeM3 = 0.02
	if v := effectiveVolume(in); !almostEqual(v, 0.02) {
		t.Errorf("override volume = %v, want 0.02", v)
	}
	in.VolumeM3 = -1 // not strictly positive, ignored
	if v := effectiveVolume(in); !almostEqual(v, 0.006) {
		t.Errorf("negative override must be ignored, got %v", v)
	}

	in.VolumetricWeightKg = 9.5
	if w := effectiveVolumetricWeight(in); !almostEqual(w, 9.5) {
		t.Errorf("override weight = %v, want 9.5", w)
	}
}

func TestCreateShipmentHappyPath(t *testing.T) {
	portal := &mockPortalStore{}
	core := &mockCoreStore{}
	api := &mockCarrier{quote: &carrier.RoutingQuote{
		Network:  "N01",
		Service:  "S01",
		Delivery: "D01",
	}}
	o := newTestOrchestrator(portal, core, api, &mockSequence{next: 7})

	customerID := uuid.New()
	created, err := o.CreateShipment(context.Background(), testRequestInfo(customerID), baseIntent())
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}

	if created.Reference != "PP240501-MARIA-LUCA-7" {
		t.Errorf("reference = %q, want PP240501-MARIA-LUCA-7", created.Reference)
	}
	if created.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed", created.Status)
	}
	if created.ParcelID != "PARCEL-1" || created.TrackingID != "TRACK-1" {
		t.Errorf("carrier identifiers not carried: %+v", created)
	}
	if created.LabelPath != "/labels/SHIP-1.pdf" {
		t.Errorf("label path = %q", created.LabelPath)
	}

	// Routing resolved from the quote, with the pricing condition falling
	// back to the configured one for the network.
	if api.createReq.Network != "N01" || api.createReq.Service != "S01" || api.createReq.Delivery != "D01" {
		t.Errorf("routing not resolved into the carrier request: %+v", api.createReq)
	}
	if api.createReq.PricingCondition != "P10" {
		t.Errorf("pricing condition = %q, want configured fallback P10", api.createReq.PricingCondition)
	}
	if !almostEqual(api.createReq.VolumeM3, 0.006) {
		t.Errorf("carrier request volume = %v, want 0.006", api.createReq.VolumeM3)
	}

	if core.inserted == nil {
		t.Fatal("core shipment was not persisted")
	}
	if core.row.ConfirmedAt == nil {
		t.Error("confirmation timestamp missing on the core record")
	}

	if portal.inserted == nil {
		t.Fatal("portal shipment was not persisted")
	}
	if portal.inserted.CustomerID != customerID {
		t.Error("portal row is not scoped to the creating customer")
	}
	if portal.inserted.Status != StatusConfirmed {
		t.Errorf("portal status = %q, want confirmed", portal.inserted.Status)
	}
	if portal.inserted.CoreShipmentID != core.inserted.ID {
		t.Error("portal row does not point at the core record")
	}
}

func TestCreateShipmentConfirmFailureSurvives(t *testing.T) {
	portal := &mockPortalStore{}
	core := &mockCoreStore{}
	api := &mockCarrier{confirmErr: carrier.ErrCarrierRequest}
	o := newTestOrchestrator(portal, core, api, &mockSequence{next: 1})

	created, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), baseIntent())
	if err != nil {
		t.Fatalf("creation must survive a failed confirmation: %v", err)
	}
	if created.Status != StatusConfirmFailed {
		t.Errorf("status = %q, want confirm_failed", created.Status)
	}
	if created.LabelPath != "" {
		t.Error("no label can exist for an unconfirmed shipment")
	}
	if core.row.ConfirmedAt != nil {
		t.Error("a failed confirmation must not set ConfirmedAt")
	}
	// The explicit intermediate state was persisted before the confirm call.
	if len(core.updates) == 0 || core.updates[0] != StatusConfirmPending {
		t.Errorf("confirm_pending was not persisted first: %v", core.updates)
	}
}

func TestCreateShipmentLabelFailureKeepsConfirmed(t *testing.T) {
	portal := &mockPortalStore{}
	core := &mockCoreStore{}
	api := &mockCarrier{reprintErr: carrier.ErrCarrierRequest}
	o := newTestOrchestrator(portal, core, api, &mockSequence{next: 1})

	created, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), baseIntent())
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if created.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed despite missing label", created.Status)
	}
	if created.LabelPath != "" {
		t.Errorf("label path = %q, want empty", created.LabelPath)
	}
}

func TestCreateShipmentRoutingQuoteFailureProceeds(t *testing.T) {
	portal := &mockPortalStore{}
	core := &mockCoreStore{}
	api := &mockCarrier{quoteErr: carrier.ErrCarrierRequest}
	o := newTestOrchestrator(portal, core, api, &mockSequence{next: 1})

	in := baseIntent()
	in.Network = "N09"
	created, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), in)
	if err != nil {
		t.Fatalf("a dead routing resolver must not block creation: %v", err)
	}
	if created == nil {
		t.Fatal("no result")
	}
	if api.createReq.Network != "N09" {
		t.Errorf("explicit network %q was lost", api.createReq.Network)
	}
}

func TestCreateShipmentCallerReferenceWins(t *testing.T) {
	portal := &mockPortalStore{}
	core := &mockCoreStore{}
	api := &mockCarrier{}
	o := newTestOrchestrator(portal, core, api, &mockSequence{next: 1})

	in := baseIntent()
	in.Reference = "MY-OWN-REF-42"
	created, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), in)
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if created.Reference != "MY-OWN-REF-42" {
		t.Errorf("reference = %q, want the caller's", created.Reference)
	}
}

func TestCreateShipmentMissingCarrierConfig(t *testing.T) {
	o := NewOrchestrator(&mockPortalStore{}, &mockCoreStore{}, &mockCarrier{}, &mockSequence{}, nil, CarrierSettings{})
	_, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), baseIntent())
	if !errors.Is(err, ErrCarrierConfigMissing) {
		t.Fatalf("err = %v, want ErrCarrierConfigMissing", err)
	}
}

func TestCreateShipmentValidationFailureIsEarly(t *testing.T) {
	api := &mockCarrier{}
	seq := &mockSequence{err: errors.New("must not be reached")}
	o := newTestOrchestrator(&mockPortalStore{}, &mockCoreStore{}, api, seq)

	in := baseIntent()
	in.RecipientName = ""
	_, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want a ValidationError", err)
	}
	if api.createReq != nil {
		t.Error("the carrier must not be called for an invalid intent")
	}
}

func TestCreateShipmentCarrierFailurePersistsNothing(t *testing.T) {
	portal := &mockPortalStore{}
	core := &mockCoreStore{}
	api := &mockCarrier{createErr: carrier.ErrCarrierRequest}
	o := newTestOrchestrator(portal, core, api, &mockSequence{next: 1})

	_, err := o.CreateShipment(context.Background(), testRequestInfo(uuid.New()), baseIntent())
	if !errors.Is(err, carrier.ErrCarrierRequest) {
		t.Fatalf("err = %v, want wrapped carrier error", err)
	}
	if core.inserted != nil || portal.inserted != nil {
		t.Error("nothing may be persisted when the carrier rejects creation")
	}
}
