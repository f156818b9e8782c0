package reservation

import "errors"

// Error kinds surfaced by every stage of a refresh cycle. Adapters wrap the
// underlying cause with one of these so callers can match with errors.Is.
var (
	ErrTransport             = errors.New("transport error")
	ErrDecode                = errors.New("invalid response format")
	ErrAuthInvalid           = errors.New("invalid credentials")
	ErrNoDeparture           = errors.New("no qualifying departure")
	ErrNoMatchingReservation = errors.New("reservation not found in listing")
	ErrReservationFailed     = errors.New("reservation failed")
)

// Describe reduces any cycle error to a single human-readable message.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthInvalid):
		return "Login failed: check your username and password."
	case errors.Is(err, ErrNoDeparture):
		return "No shuttle with free seats departs around now."
	case errors.Is(err, ErrNoMatchingReservation):
		return "The seat was reserved but the reservation did not show up yet. Refresh again shortly."
	case errors.Is(err, ErrReservationFailed):
		return "The reservation was rejected by the shuttle service."
	case errors.Is(err, ErrDecode):
		return "The shuttle service returned an unexpected response."
	case errors.Is(err, ErrTransport):
		return "Could not reach the shuttle service."
	default:
		return "Something went wrong: " + err.Error()
	}
}
