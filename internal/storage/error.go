package storage

import "errors"

var (
	ErrInsufficientStake = errors.New("stake below required minimum")
	ErrBatteryExhausted  = errors.New("battery charge exhausted")
	ErrInvalidProof      = errors.New("proof does not bind to object")
	ErrObjectNotFound    = errors.New("object not found")
	ErrProofNotFound     = errors.New("proof not found")
)
