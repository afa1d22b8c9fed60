package engine

import "errors"

// Error taxonomy surfaced to callers. Every operation is all-or-nothing: an
// error means the call had no effect on ledger state.
var (
	ErrIntentNotFound      = errors.New("intent not found")
	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrIntentExpired       = errors.New("intent deadline has passed")
	ErrAlreadyExecuted     = errors.New("intent already executed")
	ErrNotYetExpired       = errors.New("intent grace period has not elapsed")
	ErrZeroAmount          = errors.New("contribution amount must be positive")
	ErrTooManyParticipants = errors.New("participant cap reached")
	ErrVenueNotAllowed     = errors.New("execution venue not on allow-list")
	ErrPolicyViolation     = errors.New("trade instruction violates policy commitment")
	ErrExecutionFailed     = errors.New("execution venue reported failure")
	ErrBelowMinimum        = errors.New("realized output below intent minimum")
	ErrInsufficientPool    = errors.New("intent has no pooled input")
	ErrNotAdmin            = errors.New("caller is not the administrator")
)

// ClassifyError maps an error to a stable label for metrics.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrIntentNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidParameters):
		return "invalid_parameters"
	case errors.Is(err, ErrIntentExpired):
		return "intent_expired"
	case errors.Is(err, ErrAlreadyExecuted):
		return "already_executed"
	case errors.Is(err, ErrNotYetExpired):
		return "not_yet_expired"
	case errors.Is(err, ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, ErrTooManyParticipants):
		return "too_many_participants"
	case errors.Is(err, ErrVenueNotAllowed):
		return "venue_not_allowed"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ErrExecutionFailed):
		return "execution_failed"
	case errors.Is(err, ErrBelowMinimum):
		return "below_minimum"
	case errors.Is(err, ErrInsufficientPool):
		return "insufficient_pool"
	case errors.Is(err, ErrNotAdmin):
		return "not_admin"
	default:
		return "custody_failure"
	}
}
