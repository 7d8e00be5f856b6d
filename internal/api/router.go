package api

import "github.com/gin-gonic/gin"

// NewRouter mounts all customer-facing routes behind the identity middleware.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	v1 := r.Group("/api/v1")
	v1.Use(CustomerAuth())
	{
		v1.POST("/payments", h.CreatePayment)
		v1.GET("/payments/:reference", h.GetPayment)
		v1.POST("/payments/:reference/session", h.AttachSession)
		v1.POST("/payments/:reference/finalize", h.FinalizePayment)

		v1.GET("/shipments/:id", h.GetShipment)
		v1.POST("/shipments/:id/tracking/refresh", h.RefreshTracking)
		v1.POST("/shipments/:id/label/reprint", h.ReprintLabel)
	}

	return r
}
