package replication

import "errors"

var (
	ErrInvalidThreshold       = errors.New("response threshold must be at least 1")
	ErrInvalidInterval        = errors.New("response interval must be at least 1s")
	ErrVerificationInProgress = errors.New("verification already in progress")
	ErrResponseSizeExceeded   = errors.New("stored cell data exceeds size ceiling")
	ErrVerificationFailed     = errors.New("proof verification failed")
	ErrInvalidRedundancy      = errors.New("redundancy factor must be at least 1")
	ErrInvalidProbability     = errors.New("propagation probability must be in [0, 1]")
)
