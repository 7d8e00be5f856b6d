package shipment

import (
	"context"
	"fmt"
	"time"
)

// SyncEngine reconciles the portal projection against the carrier's
// authoritative record. It is a lazy pull: it runs on every read of a portal
// row, and nothing pushes changes in between.
type SyncEngine struct {
	portal PortalStore
	core   CoreStore
	clock  func() time.Time
}

func NewSyncEngine(portal PortalStore, core CoreStore) *SyncEngine {
	return &SyncEngine{portal: portal, core: core, clock: time.Now}
}

// SynchronizePortalRow copies forward whatever drifted on the core record and
// persists the portal row when anything changed. A soft-deleted core record
// forces the portal status to cancelled no matter what is stored.
func (s *SyncEngine) SynchronizePortalRow(ctx context.Context, p *PortalShipment) (*PortalShipment, error) {
	core, err := s.core.GetByID(ctx, p.CoreShipmentID)
	if err != nil {
		return nil, fmt.Errorf("fetching core shipment %s: %w", p.CoreShipmentID, err)
	}

	changed := false

	status := core.Status
	if core.DeletedAt != nil {
		status = StatusCancelled
	}
	if p.Status != status {
		p.Status = status
		changed = true
	}

	if core.ParcelID != "" && core.ParcelID != p.ParcelID {
		p.ParcelID = core.ParcelID
		changed = true
	}
	if core.TrackingID != "" && core.TrackingID != p.TrackingID {
		p.TrackingID = core.TrackingID
		changed = true
	}
	if core.LabelPath != "" && core.LabelPath != p.LabelPath {
		p.LabelPath = core.LabelPath
		changed = true
	}

	if changed {
		now := s.clock()
		p.LastSyncedAt = &now
		p.UpdatedAt = now
		if err := s.portal.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("persisting synchronized portal row %s: %w", p.ID, err)
		}
	}
	return p, nil
}

// StatusDisplay is what the portal renders for a normalized status.
type StatusDisplay struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Badge string `json:"badge"`
	Hint  string `json:"hint"`
}

var statusDisplays = map[string]StatusDisplay{
	StatusCreated: {
		Code:  StatusCreated,
		Label: "Created",
		Badge: "info",
		Hint:  "The shipment has been registered with the carrier.",
	},
	StatusConfirmPending: {
		Code:  StatusConfirmPending,
		Label: "Awaiting confirmation",
		Badge: "info",
		Hint:  "The carrier has not acknowledged the shipment yet.",
	},
	StatusConfirmFailed: {
		Code:  StatusConfirmFailed,
		Label: "Needs attention",
		Badge: "warning",
		Hint:  "The shipment was created but could not be confirmed. It will be retried.",
	},
	StatusConfirmed: {
		Code:  StatusConfirmed,
		Label: "Confirmed",
		Badge: "success",
		Hint:  "The carrier has taken charge of the shipment.",
	},
	StatusCancelled: {
		Code:  StatusCancelled,
		Label: "Cancelled",
		Badge: "danger",
		Hint:  "The shipment was cancelled.",
	},
}

// DisplayForStatus renders a normalized status, with a generic fallback for
// codes the portal does not recognize.
func DisplayForStatus(status string) StatusDisplay {
	if d, ok := statusDisplays[status]; ok {
		return d
	}
	return StatusDisplay{
		Code:  status,
		Label: "In progress",
		Badge: "secondary",
		Hint:  "The shipment is being processed.",
	}
}
