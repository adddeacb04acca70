package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ServiceInfo struct {
	Name    string
	Version string
	Region  string
}

type HealthHandler struct {
	info ServiceInfo
}

func NewHealthHandler(info ServiceInfo) *HealthHandler { return &HealthHandler{info: info} }

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.info.Name,
		"version": h.info.Version,
		"status":  "healthy",
	})
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.info.Name,
		"version": h.info.Version,
		"region":  h.info.Region,
	})
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
