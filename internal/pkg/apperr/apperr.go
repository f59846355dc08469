package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Boundary error taxonomy. Authorization failures are merged into
// ErrNotAuthorized before they leave a service; which internal check
// failed (membership, role, ownership) is never exposed to the caller.
var (
	ErrNotAuthenticated    = errors.New("Not authenticated")
	ErrNotAuthorized       = errors.New("Not found or not authorized")
	ErrNotFound            = errors.New("Not found")
	ErrInvalidInput        = errors.New("Invalid input")
	ErrExpired             = errors.New("Invalid or expired invitation")
	ErrAlreadyRedeemed     = errors.New("Invitation has already been redeemed")
	ErrAlreadyFulfilled    = errors.New("Order has already been fulfilled")
	ErrPaymentNotConfirmed = errors.New("Order payment has not been confirmed")
	ErrConflict            = errors.New("Conflicting update")
	ErrUpstreamUnavailable = errors.New("Upstream service unavailable")
)

// StatusCode maps a taxonomy error to its HTTP status. ErrNotAuthorized
// intentionally maps to 404 so denied access is indistinguishable from
// a missing resource on sensitive surfaces.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotAuthorized):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrExpired):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrAlreadyRedeemed),
		errors.Is(err, ErrAlreadyFulfilled),
		errors.Is(err, ErrPaymentNotConfirmed),
		errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// IsTaxonomy reports whether err belongs to the boundary taxonomy.
// Handlers surface taxonomy errors verbatim and hide everything else
// behind a generic 500 so raw storage errors never reach the caller.
func IsTaxonomy(err error) bool {
	return StatusCode(err) != fiber.StatusInternalServerError
}
