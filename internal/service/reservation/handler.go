package reservation

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/ports"
)

// Handler handles reservation and session HTTP requests
type Handler struct {
	service ports.ReservationService
}

// NewHandler creates a new reservation handler
func NewHandler(service ports.ReservationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers reservation routes
func (h *Handler) RegisterRoutes(app fiber.Router, authMiddleware fiber.Handler) {
	reservations := app.Group("/api/v1/reservations", authMiddleware)

	reservations.Post("/", h.ConfirmReservation)
	reservations.Get("/", h.ListReservations)
	reservations.Get("/:id", h.GetReservation)
	reservations.Get("/:id/fees", h.ListFees)
	reservations.Post("/:id/cancel", h.CancelReservation)
	reservations.Post("/:id/start", h.StartSession)

	sessions := app.Group("/api/v1/sessions", authMiddleware)
	sessions.Get("/:id", h.GetSession)
	sessions.Post("/:id/complete", h.CompleteSession)
}

// ConfirmReservationRequest represents the request body
type ConfirmReservationRequest struct {
	VehicleID       string    `json:"vehicle_id"`
	ChargingPointID string    `json:"charging_point_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	CurrentBattery  int       `json:"current_battery"`
	TargetBattery   int       `json:"target_battery"`
}

// ConfirmReservation handles POST /api/v1/reservations
func (h *Handler) ConfirmReservation(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)

	var req ConfirmReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reservation, err := h.service.ConfirmReservation(c.UserContext(), ports.ConfirmRequest{
		UserID:          actor.ID,
		VehicleID:       req.VehicleID,
		ChargingPointID: req.ChargingPointID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		CurrentBattery:  req.CurrentBattery,
		TargetBattery:   req.TargetBattery,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(reservation)
}

// GetReservation handles GET /api/v1/reservations/:id
func (h *Handler) GetReservation(c *fiber.Ctx) error {
	reservation, err := h.service.GetReservation(c.UserContext(), c.Params("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(reservation)
}

// ListReservations handles GET /api/v1/reservations
func (h *Handler) ListReservations(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	userID := actor.ID
	if other := c.Query("user_id"); other != "" && other != actor.ID {
		if !actor.Role.IsStaff() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied",
			})
		}
		userID = other
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	reservations, err := h.service.ListUserReservations(c.UserContext(), userID, limit, offset)
	if err != nil {
		return err
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}

	return c.JSON(fiber.Map{
		"reservations": reservations,
		"limit":        limit,
		"offset":       offset,
	})
}

// ListFees handles GET /api/v1/reservations/:id/fees
func (h *Handler) ListFees(c *fiber.Ctx) error {
	fees, err := h.service.ListFees(c.UserContext(), c.Params("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	if fees == nil {
		fees = []domain.Fee{}
	}
	return c.JSON(fiber.Map{"fees": fees})
}

// CancelReservation handles POST /api/v1/reservations/:id/cancel
func (h *Handler) CancelReservation(c *fiber.Ctx) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	result, err := h.service.CancelReservation(c.UserContext(), ports.CancelRequest{
		ReservationID: c.Params("id"),
		Actor:         middleware.ActorFrom(c),
		Reason:        body.Reason,
	})
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// StartSession handles POST /api/v1/reservations/:id/start
func (h *Handler) StartSession(c *fiber.Ctx) error {
	session, err := h.service.StartSession(c.UserContext(), c.Params("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.UserContext(), c.Params("id"), middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// CompleteSessionRequest represents the request body
type CompleteSessionRequest struct {
	EnergyDeliveredKWh float64   `json:"energy_delivered_kwh"`
	EndTime            time.Time `json:"end_time"`
}

// CompleteSession handles POST /api/v1/sessions/:id/complete
func (h *Handler) CompleteSession(c *fiber.Ctx) error {
	var req CompleteSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.CompleteSession(c.UserContext(), ports.CompleteRequest{
		SessionID:          c.Params("id"),
		EnergyDeliveredKWh: req.EnergyDeliveredKWh,
		EndTime:            req.EndTime,
		Actor:              middleware.ActorFrom(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(result)
}
