package domain

import "errors"

// ErrConflict is returned by repositories when a create collides with an
// existing row (duplicate transaction id or merchant/reference pair).
// The orchestrator treats it as an idempotency hit, not a failure.
var ErrConflict = errors.New("conflict: record already exists")
