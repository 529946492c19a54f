// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes provide a
// stable, machine-readable error taxonomy that supplements human-readable
// messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic.
//   - Generic codes (e.g., bad_request, unauthorized) mirror common HTTP
//     status semantics to aid interoperability.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_request",
//	  "message": "malformed update payload"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
