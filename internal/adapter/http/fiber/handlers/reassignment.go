package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

// ReassignmentHandler serves the staff-only reassignment endpoints
type ReassignmentHandler struct {
	service ports.ReassignmentService
	log     *zap.Logger
}

func NewReassignmentHandler(service ports.ReassignmentService, log *zap.Logger) *ReassignmentHandler {
	return &ReassignmentHandler{
		service: service,
		log:     log,
	}
}

func (h *ReassignmentHandler) RegisterRoutes(app fiber.Router, authMiddleware fiber.Handler) {
	// per route: a group middleware would apply to every reservation route
	app.Get("/api/v1/reservations/:id/alternatives", authMiddleware, middleware.StaffOnly(), h.Alternatives)
	app.Post("/api/v1/reservations/:id/reassign", authMiddleware, middleware.StaffOnly(), h.Reassign)
}

// Alternatives handles GET /api/v1/reservations/:id/alternatives
func (h *ReassignmentHandler) Alternatives(c *fiber.Ctx) error {
	points, err := h.service.FindAlternativePoints(c.UserContext(), c.Params("id"), c.Query("current_point_id"))
	if err != nil {
		return err
	}
	if points == nil {
		points = []domain.ChargingPoint{}
	}
	return c.JSON(fiber.Map{"charging_points": points})
}

type reassignRequest struct {
	CurrentPointID string `json:"current_point_id"`
	NewPointID     string `json:"new_point_id"`
	Reason         string `json:"reason"`
}

// Reassign handles POST /api/v1/reservations/:id/reassign
func (h *ReassignmentHandler) Reassign(c *fiber.Ctx) error {
	var req reassignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}
	if req.NewPointID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "new_point_id is required"})
	}

	actor := middleware.ActorFrom(c)
	reservation, err := h.service.ReassignPoint(c.UserContext(), ports.ReassignRequest{
		ReservationID:  c.Params("id"),
		CurrentPointID: req.CurrentPointID,
		NewPointID:     req.NewPointID,
		Reason:         req.Reason,
		Actor:          actor,
	})
	if err != nil {
		return err
	}

	h.log.Info("Reassignment requested over HTTP",
		zap.String("reservation_id", reservation.ID),
		zap.String("actor", actor.ID),
	)
	return c.JSON(reservation)
}
