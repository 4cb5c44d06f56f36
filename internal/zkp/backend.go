package zkp

import "errors"

// ErrBackendUnavailable marks a backend/transport failure, distinct from a
// proof that verified to false.
var ErrBackendUnavailable = errors.New("proof backend unavailable")

// Backend is the succinct-proof capability the core consumes. Generation is
// deterministic given identical inputs.
type Backend interface {
	// Generate produces an opaque proof for a balance/nonce transition.
	Generate(oldBalance, oldNonce, newBalance, newNonce, transferAmount uint64) ([]byte, error)

	// Verify checks an opaque proof payload. A false result means the proof
	// did not verify; an error means the backend itself failed.
	Verify(data []byte) (bool, error)
}
