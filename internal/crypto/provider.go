// Package crypto defines the capability interfaces through which the console
// consumes its external cryptographic collaborator. The console never knows
// how these are implemented; the local provider here is a stand-in with the
// same shape.
package crypto

import "context"

// Signer produces a binding signature over arbitrary data.
type Signer interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
}

// Verifier checks a binding signature. key identifies the verification key
// for asymmetric providers; symmetric providers ignore it. Mismatches are
// results, not errors.
type Verifier interface {
	Verify(ctx context.Context, data, signature []byte, key string) bool
}

// Encapsulator derives a shared secret for a peer key (KEM-style).
type Encapsulator interface {
	Encapsulate(ctx context.Context, key string) ([]byte, error)
}

// Encrypter seals a plaintext with authenticated encryption and returns an
// opaque transportable ciphertext.
type Encrypter interface {
	Encrypt(ctx context.Context, plaintext []byte) (string, error)
}

// Provider bundles the full collaborator surface.
type Provider interface {
	Signer
	Verifier
	Encapsulator
	Encrypter
}
