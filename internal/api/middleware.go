package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agservizi/parcelport/internal/reqinfo"
)

const requestInfoKey = "requestInfo"

// CustomerAuth builds the per-request caller identity from the authenticated
// customer header set by the edge proxy. Requests without a valid customer id
// never reach a handler.
func CustomerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Customer-ID")
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing customer identity"})
			c.Abort()
			return
		}
		customerID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid customer identity"})
			c.Abort()
			return
		}

		c.Set(requestInfoKey, reqinfo.RequestInfo{
			CustomerID: customerID,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		})
		c.Next()
	}
}

func requestInfo(c *gin.Context) reqinfo.RequestInfo {
	v, _ := c.Get(requestInfoKey)
	ri, _ := v.(reqinfo.RequestInfo)
	return ri
}
