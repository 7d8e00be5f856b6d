package shipment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestSyncEngine(portal *mockPortalStore, core *mockCoreStore) *SyncEngine {
	s := NewSyncEngine(portal, core)
	s.clock = fixedClock(testDay)
	return s
}

func portalRowFor(core *CoreShipment) *PortalShipment {
	return &PortalShipment{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		CoreShipmentID: core.ID,
		Status:         core.Status,
		ParcelID:       core.ParcelID,
		TrackingID:     core.TrackingID,
		LabelPath:      core.LabelPath,
	}
}

func TestSynchronizePortalRowCopiesForwardDrift(t *testing.T) {
	coreRow := &CoreShipment{
		ID:         uuid.New(),
		Status:     StatusConfirmed,
		ParcelID:   "PARCEL-2",
		TrackingID: "TRACK-2",
		LabelPath:  "/labels/2.pdf",
	}
	portal := &mockPortalStore{}
	core := &mockCoreStore{row: coreRow}
	s := newTestSyncEngine(portal, core)

	stale := &PortalShipment{
		ID:             uuid.New(),
		CoreShipmentID: coreRow.ID,
		Status:         StatusConfirmPending,
		ParcelID:       "PARCEL-2",
	}
	got, err := s.SynchronizePortalRow(context.Background(), stale)
	if err != nil {
		t.Fatalf("SynchronizePortalRow: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("status = %q, want confirmed", got.Status)
	}
	if got.TrackingID != "TRACK-2" || got.LabelPath != "/labels/2.pdf" {
		t.Errorf("drifted fields not copied forward: %+v", got)
	}
	if got.LastSyncedAt == nil || !got.LastSyncedAt.Equal(testDay) {
		t.Error("sync timestamp not recorded")
	}
	if portal.updated == nil {
		t.Error("a changed row must be persisted")
	}
}

func TestSynchronizePortalRowSoftDeleteForcesCancelled(t *testing.T) {
	deleted := testDay.Add(-time.Hour)
	coreRow := &CoreShipment{
		ID:        uuid.New(),
		Status:    StatusConfirmed, // whatever is stored loses to the soft delete
		DeletedAt: &deleted,
	}
	portal := &mockPortalStore{}
	core := &mockCoreStore{row: coreRow}
	s := newTestSyncEngine(portal, core)

	got, err := s.SynchronizePortalRow(context.Background(), portalRowFor(coreRow))
	if err != nil {
		t.Fatalf("SynchronizePortalRow: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled for a soft-deleted core record", got.Status)
	}
}

func TestSynchronizePortalRowNoChangeNoWrite(t *testing.T) {
	coreRow := &CoreShipment{
		ID:         uuid.New(),
		Status:     StatusConfirmed,
		ParcelID:   "PARCEL-1",
		TrackingID: "TRACK-1",
		LabelPath:  "/labels/1.pdf",
	}
	portal := &mockPortalStore{}
	core := &mockCoreStore{row: coreRow}
	s := newTestSyncEngine(portal, core)

	got, err := s.SynchronizePortalRow(context.Background(), portalRowFor(coreRow))
	if err != nil {
		t.Fatalf("SynchronizePortalRow: %v", err)
	}
	if portal.updated != nil {
		t.Error("an unchanged row must not be rewritten")
	}
	if got.LastSyncedAt != nil {
		t.Error("no sync timestamp without a change")
	}
}

func TestSynchronizePortalRowKeepsLocalValuesWhenCoreEmpty(t *testing.T) {
	// An empty core field never blanks a value the portal already has.
	coreRow := &CoreShipment{
		ID:     uuid.New(),
		Status: StatusConfirmed,
	}
	portal := &mockPortalStore{}
	core := &mockCoreStore{row: coreRow}
	s := newTestSyncEngine(portal, core)

	row := portalRowFor(coreRow)
	row.TrackingID = "TRACK-KEEP"
	got, err := s.SynchronizePortalRow(context.Background(), row)
	if err != nil {
		t.Fatalf("SynchronizePortalRow: %v", err)
	}
	if got.TrackingID != "TRACK-KEEP" {
		t.Errorf("tracking id was blanked: %q", got.TrackingID)
	}
}

func TestDisplayForStatus(t *testing.T) {
	if d := DisplayForStatus(StatusConfirmed); d.Label != "Confirmed" || d.Badge != "success" {
		t.Errorf("confirmed display = %+v", d)
	}
	if d := DisplayForStatus(StatusCancelled); d.Badge != "danger" {
		t.Errorf("cancelled display = %+v", d)
	}
	// Unknown codes render, they do not panic or vanish.
	d := DisplayForStatus("weird_carrier_state")
	if d.Code != "weird_carrier_state" || d.Label != "In progress" {
		t.Errorf("fallback display = %+v", d)
	}
}
