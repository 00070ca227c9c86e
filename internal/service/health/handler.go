package health

import (
	"github.com/gofiber/fiber/v2"
)

// FiberHandler serves the liveness and readiness probes
type FiberHandler struct {
	service *Service
}

func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes registers /health and /ready, plus the z-suffixed aliases
// Kubernetes manifests usually probe.
func (h *FiberHandler) RegisterRoutes(app fiber.Router) {
	for _, path := range []string{"/health", "/healthz"} {
		app.Get(path, h.Health)
	}
	for _, path := range []string{"/ready", "/readyz"} {
		app.Get(path, h.Ready)
	}
}

// Health always answers 200 while the process is up.
func (h *FiberHandler) Health(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(h.service.Health(c.UserContext()))
}

// Ready answers 503 while a required dependency is unhealthy.
func (h *FiberHandler) Ready(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	resp := h.service.Ready(c.UserContext())
	if !resp.Ready {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(resp)
}
