// Package services defines the business logic for the search → session →
// delivery flow. This file centralizes common service-level error values
// and the terminal outcomes of the delivery state machine so that they can
// be consistently returned by service methods and checked by callers.
//
// User-facing rejections are not errors: they are normal terminal outcomes
// of the pipeline, modeled as Outcome values with stable user-visible
// messages. Translation into Telegram replies is performed at the bot
// handler layer.
package services

import "errors"

// Service-level errors.
var (
	// ErrSessionExpired indicates that the referenced session is missing
	// or past its expiry and must be treated as non-existent.
	ErrSessionExpired = errors.New("session expired")

	// ErrRateLimited is returned when a user exceeds the sliding-window
	// search limit.
	ErrRateLimited = errors.New("search rate limit exceeded")

	// ErrMovieNotFound indicates that the selected movie is not in the
	// catalog.
	ErrMovieNotFound = errors.New("movie not found")
)

// Outcome is the terminal result of one delivery attempt. Every attempt
// ends in exactly one outcome; only OutcomeDelivered transitions the
// session to its terminal delivered state.
type Outcome int

const (
	// OutcomeBusy: the per-user concurrency cap rejected the attempt
	// before any lock was taken.
	OutcomeBusy Outcome = iota + 1
	// OutcomeLocked: another attempt holds the session's delivery lock.
	OutcomeLocked
	// OutcomeExpired: the session is missing or past its expiry.
	OutcomeExpired
	// OutcomeNotVerified: the requesting user failed the verification gate.
	OutcomeNotVerified
	// OutcomeUnavailable: no file record matches the selection (including
	// lookup failure after retries).
	OutcomeUnavailable
	// OutcomePremiumRequired: the file is premium-only and the user is not.
	OutcomePremiumRequired
	// OutcomeModerationBlocked: the moderation gate rejected the file.
	OutcomeModerationBlocked
	// OutcomeAlreadyDelivered: the session already reached its terminal
	// delivered state.
	OutcomeAlreadyDelivered
	// OutcomeMissingFileRef: the resolved record carries no transport file
	// reference and needs re-indexing.
	OutcomeMissingFileRef
	// OutcomeInternalError: an unexpected failure; the lock and counters
	// were still released.
	OutcomeInternalError
	// OutcomeDelivered: the file was handed to the transport and the
	// session marked delivered.
	OutcomeDelivered
)

// String returns a stable label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeBusy:
		return "busy"
	case OutcomeLocked:
		return "locked"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotVerified:
		return "not_verified"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomePremiumRequired:
		return "premium_required"
	case OutcomeModerationBlocked:
		return "moderation_blocked"
	case OutcomeAlreadyDelivered:
		return "already_delivered"
	case OutcomeMissingFileRef:
		return "missing_file_ref"
	case OutcomeInternalError:
		return "internal_error"
	case OutcomeDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// userMessages maps each outcome to its user-visible reply. The
// moderation message is a prefix completed with the verdict reason.
var userMessages = map[Outcome]string{
	OutcomeBusy:              "Please wait for the current delivery to finish.",
	OutcomeLocked:            "Another request is processing. Please wait.",
	OutcomeExpired:           "Session expired. Please /search again.",
	OutcomeNotVerified:       "You're not verified yet. Complete verification and try again.",
	OutcomeUnavailable:       "File not available for this selection.",
	OutcomePremiumRequired:   "This content is for premium users. Please upgrade to proceed.",
	OutcomeModerationBlocked: "Delivery blocked by moderation",
	OutcomeAlreadyDelivered:  "This session was already delivered.",
	OutcomeMissingFileRef:    "Stored file is missing its file reference. Please re-index.",
	OutcomeInternalError:     "Something went wrong. Please try again.",
	OutcomeDelivered:         "",
}

// DeliveryResult is the outcome of one RequestDelivery call: the terminal
// state plus the exact message to show the user.
type DeliveryResult struct {
	Outcome Outcome
	Message string
}

func resultFor(o Outcome) DeliveryResult {
	return DeliveryResult{Outcome: o, Message: userMessages[o]}
}
