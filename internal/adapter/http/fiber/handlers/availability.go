package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

type AvailabilityHandler struct {
	service ports.AvailabilityService
	log     *zap.Logger
}

func NewAvailabilityHandler(service ports.AvailabilityService, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) RegisterRoutes(app fiber.Router, authMiddleware fiber.Handler) {
	app.Get("/api/v1/stations/:stationId/availability", authMiddleware, h.Get)
}

// Get handles GET /api/v1/stations/:stationId/availability?vehicle_id&current&target
func (h *AvailabilityHandler) Get(c *fiber.Ctx) error {
	vehicleID := c.Query("vehicle_id")
	if vehicleID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "vehicle_id is required"})
	}
	if c.Query("current") == "" || c.Query("target") == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "current and target are required"})
	}

	result, err := h.service.FindAvailableSlots(c.UserContext(), ports.SlotQuery{
		StationID:      c.Params("stationId"),
		VehicleID:      vehicleID,
		UserID:         middleware.ActorFrom(c).ID,
		CurrentBattery: c.QueryInt("current", -1),
		TargetBattery:  c.QueryInt("target", -1),
	})
	if err != nil {
		return err
	}
	return c.JSON(result)
}
