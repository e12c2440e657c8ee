package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: nothing stored under the key (e.g. empty hand-off slot)
// - ErrUnavailable: service or resource temporarily unavailable
// - ErrSuperseded: a newer request replaced the one this result belongs to
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrSuperseded  = errors.New("superseded")
)
