package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// StatusFor maps an error to its HTTP status
func StatusFor(err error) int {
	var fe *fiber.Error
	var re *domain.ReassignmentError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &re) && re.Rule == domain.RuleNotFound:
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidWindow):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrNoCompatibleConnector):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoShow):
		return fiber.StatusGone
	case errors.Is(err, domain.ErrSlotConflict),
		errors.Is(err, domain.ErrReassignment),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrLockTimeout),
		errors.Is(err, domain.ErrDuplicateFee):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// errorBody adds the machine-readable details clients need to react
func errorBody(err error) fiber.Map {
	body := fiber.Map{"error": err.Error()}

	var conflict *domain.SlotConflictError
	var state *domain.InvalidStateError
	var noShow *domain.NoShowError
	var reassign *domain.ReassignmentError
	var rangeErr *domain.InvalidRangeError

	switch {
	case errors.As(err, &reassign):
		body["code"] = "REASSIGNMENT_REJECTED"
		body["rule"] = reassign.Rule
	case errors.As(err, &conflict):
		body["code"] = "SLOT_CONFLICT"
		body["charging_point_id"] = conflict.ChargingPointID
	case errors.As(err, &state):
		body["code"] = "INVALID_STATE"
		body["current_status"] = state.Current
	case errors.As(err, &noShow):
		body["code"] = "NO_SHOW"
		if noShow.Fee != nil {
			body["fee"] = noShow.Fee
		}
	case errors.As(err, &rangeErr):
		body["code"] = "INVALID_RANGE"
	case errors.Is(err, domain.ErrNoCompatibleConnector):
		body["code"] = "NO_COMPATIBLE_CONNECTOR"
	case errors.Is(err, domain.ErrLockTimeout):
		body["code"] = "LOCK_TIMEOUT"
	case errors.Is(err, domain.ErrNotFound):
		body["code"] = "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		body["code"] = "FORBIDDEN"
	case errors.Is(err, domain.ErrInvalidWindow):
		body["code"] = "INVALID_WINDOW"
	case errors.Is(err, domain.ErrValidation):
		body["code"] = "VALIDATION"
	}
	return body
}

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
			return c.Status(code).JSON(fiber.Map{
				"error": "internal server error",
			})
		}

		return c.Status(code).JSON(errorBody(err))
	}
}
