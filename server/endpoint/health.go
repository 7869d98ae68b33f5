// Package endpoint holds operational endpoints served next to the API.
package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ServicesFunc lists the providers the service can currently handle.
type ServicesFunc func() []string

// Health returns a liveness handler. The service is reported degraded when
// no provider is bound.
func Health(serviceName, version string, services ServicesFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		var bound []string
		if services != nil {
			bound = services()
		}
		if len(bound) == 0 {
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"service":   serviceName,
			"version":   version,
			"providers": bound,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
