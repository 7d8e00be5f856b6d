package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/carrier"
	"github.com/agservizi/parcelport/internal/payment"
	"github.com/agservizi/parcelport/internal/pricing"
	"github.com/agservizi/parcelport/internal/reqinfo"
	"github.com/agservizi/parcelport/internal/shipment"
)

// PaymentFinalizer is the saga entry point the handlers call.
type PaymentFinalizer interface {
	Finalize(ctx context.Context, ri reqinfo.RequestInfo, p *payment.PendingPayment) (*payment.FinalizeResult, error)
}

// ShipmentReader groups the read-side shipment operations.
type ShipmentReader interface {
	GetShipment(ctx context.Context, ri reqinfo.RequestInfo, id uuid.UUID) (*shipment.PortalShipment, error)
	RefreshTracking(ctx context.Context, ri reqinfo.RequestInfo, id uuid.UUID) (*shipment.PortalShipment, error)
	ReprintLabel(ctx context.Context, ri reqinfo.RequestInfo, id uuid.UUID) (*shipment.PortalShipment, error)
}

type Handler struct {
	matcher   *pricing.Matcher
	payments  *payment.StateMachine
	store     payment.Store
	finalizer PaymentFinalizer
	shipments ShipmentReader
}

func NewHandler(matcher *pricing.Matcher, payments *payment.StateMachine, store payment.Store, finalizer PaymentFinalizer, shipments ShipmentReader) *Handler {
	return &Handler{
		matcher:   matcher,
		payments:  payments,
		store:     store,
		finalizer: finalizer,
		shipments: shipments,
	}
}

type createPaymentRequest struct {
	Currency string          `json:"currency"`
	Intent   shipment.Intent `json:"intent"`
}

// POST /payments
func (h *Handler) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}
	if err := shipment.ValidateIntent(&req.Intent); err != nil {
		var verr *shipment.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := &req.Intent
	volume := in.VolumeM3
	if volume <= 0 {
		volume = shipment.ComputeVolumeM3(in.LengthCm, in.WidthCm, in.HeightCm, in.ParcelCount)
	}
	tier, ok, err := h.matcher.Match(c.Request.Context(), in.WeightKg, volume)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not price this shipment"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no price tier accepts this parcel"})
		return
	}

	ri := requestInfo(c)
	p, err := h.payments.CreatePendingPayment(c.Request.Context(), ri.CustomerID, *tier, req.Intent, req.Currency)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidTierPrice) || errors.Is(err, payment.ErrZeroAmount) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "the matched tier has no usable price"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reference":      p.Reference,
		"status":         p.Status,
		"amountCents":    p.AmountCents,
		"currency":       p.Currency,
		"currencySymbol": pricing.CurrencySymbol(p.Currency),
		"tier":           gin.H{"index": tier.Index, "label": tier.Label},
	})
}

type attachSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// POST /payments/:reference/session
func (h *Handler) AttachSession(c *gin.Context) {
	p, ok := h.ownedPayment(c)
	if !ok {
		return
	}
	var req attachSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.Status.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "payment is closed"})
		return
	}
	if err := h.store.AttachGatewaySession(c.Request.Context(), p.ID, req.SessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not attach session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reference": p.Reference, "status": p.Status})
}

// GET /payments/:reference
func (h *Handler) GetPayment(c *gin.Context) {
	p, ok := h.ownedPayment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, paymentResponse(p))
}

// POST /payments/:reference/finalize
func (h *Handler) FinalizePayment(c *gin.Context) {
	p, ok := h.ownedPayment(c)
	if !ok {
		return
	}
	res, err := h.finalizer.Finalize(c.Request.Context(), requestInfo(c), p)
	if err != nil {
		if errors.Is(err, payment.ErrMissingSession) {
			c.JSON(http.StatusConflict, gin.H{"error": "payment has no checkout session yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment could not be finalized"})
		return
	}

	body := gin.H{
		"reference": res.Payment.Reference,
		"status":    res.Status,
		"message":   res.Message,
	}
	if res.Shipment != nil {
		body["shipment"] = gin.H{
			"id":         res.Shipment.PortalShipmentID,
			"reference":  res.Shipment.Reference,
			"status":     res.Shipment.Status,
			"parcelId":   res.Shipment.ParcelID,
			"trackingId": res.Shipment.TrackingID,
			"labelPath":  res.Shipment.LabelPath,
		}
	}
	c.JSON(http.StatusOK, body)
}

// GET /shipments/:id
func (h *Handler) GetShipment(c *gin.Context) {
	id, ok := shipmentID(c)
	if !ok {
		return
	}
	p, err := h.shipments.GetShipment(c.Request.Context(), requestInfo(c), id)
	if err != nil {
		h.shipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipmentResponse(p))
}

// POST /shipments/:id/tracking/refresh
func (h *Handler) RefreshTracking(c *gin.Context) {
	id, ok := shipmentID(c)
	if !ok {
		return
	}
	p, err := h.shipments.RefreshTracking(c.Request.Context(), requestInfo(c), id)
	if err != nil {
		h.shipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipmentResponse(p))
}

// POST /shipments/:id/label/reprint
func (h *Handler) ReprintLabel(c *gin.Context) {
	id, ok := shipmentID(c)
	if !ok {
		return
	}
	p, err := h.shipments.ReprintLabel(c.Request.Context(), requestInfo(c), id)
	if err != nil {
		h.shipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipmentResponse(p))
}

// ownedPayment resolves :reference scoped to the caller. Rows owned by another
// customer answer exactly like missing rows.
func (h *Handler) ownedPayment(c *gin.Context) (*payment.PendingPayment, bool) {
	p, err := h.store.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payment"})
		}
		return nil, false
	}
	if p.CustomerID != requestInfo(c).CustomerID {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return nil, false
	}
	return p, true
}

func (h *Handler) shipmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shipment.ErrShipmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "shipment not found"})
	case errors.Is(err, carrier.ErrCarrierRequest):
		c.JSON(http.StatusBadGateway, gin.H{"error": "the carrier is not responding, try again later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "shipment operation failed"})
	}
}

func shipmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shipment not found"})
		return uuid.Nil, false
	}
	return id, true
}

func paymentResponse(p *payment.PendingPayment) gin.H {
	body := gin.H{
		"reference":      p.Reference,
		"status":         p.Status,
		"amountCents":    p.AmountCents,
		"currency":       p.Currency,
		"currencySymbol": pricing.CurrencySymbol(p.Currency),
		"tier":           gin.H{"index": p.TierIndex, "label": p.TierLabel},
		"createdAt":      p.CreatedAt,
	}
	if p.PaidAt != nil {
		body["paidAt"] = p.PaidAt
	}
	if p.PortalShipmentID != nil {
		body["shipmentId"] = p.PortalShipmentID
	}
	return body
}

func shipmentResponse(p *shipment.PortalShipment) gin.H {
	display := shipment.DisplayForStatus(p.Status)
	body := gin.H{
		"id":            p.ID,
		"reference":     p.Reference,
		"status":        display,
		"parcelId":      p.ParcelID,
		"trackingId":    p.TrackingID,
		"labelPath":     p.LabelPath,
		"parcelCount":   p.ParcelCount,
		"weightKg":      p.WeightKg,
		"volumeM3":      p.VolumeM3,
		"recipientName": p.RecipientName,
		"address":       p.Address,
		"zipCode":       p.ZIPCode,
		"city":          p.City,
		"province":      p.Province,
		"country":       p.Country,
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
	if len(p.Metadata) > 0 {
		body["metadata"] = json.RawMessage(p.Metadata)
	}
	if p.LastSyncedAt != nil {
		body["lastSyncedAt"] = p.LastSyncedAt
	}
	return body
}
