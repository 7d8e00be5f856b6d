package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestService(portal *mockPortalStore, core *mockCoreStore, api *mockCarrier) *Service {
	s := NewService(portal, core, api, newTestSyncEngine(portal, core), testSettings())
	s.clock = fixedClock(testDay)
	return s
}

func ownedFixture() (*mockPortalStore, *mockCoreStore, *PortalShipment) {
	coreRow := &CoreShipment{
		ID:                uuid.New(),
		Status:            StatusConfirmed,
		CarrierShipmentID: "SHIP-1",
		ParcelID:          "PARCEL-1",
		TrackingID:        "TRACK-1",
		LabelPath:         "/labels/1.pdf",
	}
	row := portalRowFor(coreRow)
	return &mockPortalStore{row: row}, &mockCoreStore{row: coreRow}, row
}

func TestGetShipmentScoping(t *testing.T) {
	portal, core, row := ownedFixture()
	svc := newTestService(portal, core, &mockCarrier{})

	// Owner sees the row.
	got, err := svc.GetShipment(context.Background(), testRequestInfo(row.CustomerID), row.ID)
	if err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if got.ID != row.ID {
		t.Errorf("got row %s, want %s", got.ID, row.ID)
	}

	// Another customer gets exactly the same answer as for a missing row.
	_, err = svc.GetShipment(context.Background(), testRequestInfo(uuid.New()), row.ID)
	if !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("foreign lookup err = %v, want ErrShipmentNotFound", err)
	}
	_, err = svc.GetShipment(context.Background(), testRequestInfo(row.CustomerID), uuid.New())
	if !errors.Is(err, ErrShipmentNotFound) {
		t.Fatalf("missing lookup err = %v, want ErrShipmentNotFound", err)
	}
}

func TestGetShipmentSyncsOnRead(t *testing.T) {
	portal, core, row := ownedFixture()
	core.row.Status = StatusCancelled
	svc := newTestService(portal, core, &mockCarrier{})

	got, err := svc.GetShipment(context.Background(), testRequestInfo(row.CustomerID), row.ID)
	if err != nil {
		t.Fatalf("GetShipment: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, the read did not reconcile against the core record", got.Status)
	}
}

func TestRefreshTrackingMergesCarrierDocument(t *testing.T) {
	portal, core, row := ownedFixture()
	api := &mockCarrier{tracking: json.RawMessage(`{"events":[{"code":"DEP","depot":"NA1"}]}`)}
	svc := newTestService(portal, core, api)

	got, err := svc.RefreshTracking(context.Background(), testRequestInfo(row.CustomerID), row.ID)
	if err != nil {
		t.Fatalf("RefreshTracking: %v", err)
	}

	var meta Metadata
	if err := json.Unmarshal(got.Metadata, &meta); err != nil {
		t.Fatalf("metadata unreadable: %v", err)
	}
	if meta.Tracking == nil {
		t.Fatal("tracking document not merged into metadata")
	}
	if meta.SynchronizedAt == nil || !meta.SynchronizedAt.Equal(testDay) {
		t.Error("synchronization timestamp missing")
	}
	if portal.updated == nil {
		t.Error("refreshed row not persisted")
	}
}

func TestRefreshTrackingCarrierFailure(t *testing.T) {
	portal, core, row := ownedFixture()
	api := &mockCarrier{trackingErr: errors.New("carrier 500")}
	svc := newTestService(portal, core, api)

	_, err := svc.RefreshTracking(context.Background(), testRequestInfo(row.CustomerID), row.ID)
	if err == nil {
		t.Fatal("expected an error when the carrier cannot be reached")
	}
}

func TestReprintLabelForcesAndPreservesConfirmedAt(t *testing.T) {
	portal, core, row := ownedFixture()
	confirmedAt := testDay.Add(-48 * time.Hour)
	core.row.ConfirmedAt = &confirmedAt
	api := &mockCarrier{}
	svc := newTestService(portal, core, api)

	_, err := svc.ReprintLabel(context.Background(), testRequestInfo(row.CustomerID), row.ID)
	if err != nil {
		t.Fatalf("ReprintLabel: %v", err)
	}
	if api.reprintReq == nil || !api.reprintReq.ForceLabel {
		t.Error("reprint must force label regeneration")
	}
	if core.row.ConfirmedAt == nil || !core.row.ConfirmedAt.Equal(confirmedAt) {
		t.Error("a reprint must not touch the original confirmation timestamp")
	}
	if core.row.LabelPath != "/labels/SHIP-1.pdf" {
		t.Errorf("new label path not stored: %q", core.row.LabelPath)
	}
}
