package domain

import "errors"

// ErrSessionNotFound is returned by every session store backend when the
// requested session does not exist. Stores map their driver-specific
// not-found conditions to this sentinel so callers can branch with
// errors.Is regardless of the configured backend.
var ErrSessionNotFound = errors.New("session not found")
