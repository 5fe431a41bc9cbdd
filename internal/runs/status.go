package runs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const livenessText = "App running. Go to /run to start scraper."

// RegisterStatusRoutes mounts the unauthenticated liveness endpoints.
func RegisterStatusRoutes(rg *gin.RouterGroup) {
	rg.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, livenessText)
	})
	rg.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
