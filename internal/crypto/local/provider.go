// Package local is the in-process crypto provider: HMAC-SHA256 key bindings
// (the HS256 primitive from golang-jwt), AES-GCM sealing, and a hash-based
// encapsulation. It exists so the console runs standalone; a deployment with
// a real provider swaps it at the crypto.Provider seam.
package local

import (
	"context"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"crypto/aes"
	"crypto/cipher"

	"github.com/golang-jwt/jwt/v5"
)

const gcmNonceSize = 12

// Provider implements crypto.Provider with a per-process master secret.
type Provider struct {
	secret []byte
	aead   cipher.AEAD
}

// New derives the provider from a master secret. An empty secret gets a
// random one, meaning bindings do not survive restarts.
func New(secret []byte) (*Provider, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := cryptorand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate master secret: %w", err)
		}
	}

	key := sha256.Sum256(secret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm mode: %w", err)
	}

	return &Provider{secret: secret, aead: aead}, nil
}

// Sign produces an HMAC-SHA256 binding over data.
func (p *Provider) Sign(_ context.Context, data []byte) ([]byte, error) {
	return jwt.SigningMethodHS256.Sign(string(data), p.secret)
}

// Verify checks an HMAC-SHA256 binding. The key argument is ignored: the
// binding secret is symmetric here.
func (p *Provider) Verify(_ context.Context, data, signature []byte, _ string) bool {
	return jwt.SigningMethodHS256.Verify(string(data), signature, p.secret) == nil
}

// Encapsulate derives a 32-byte shared secret bound to the peer key and a
// fresh random nonce.
func (p *Provider) Encapsulate(_ context.Context, key string) ([]byte, error) {
	nonce := make([]byte, 16)
	if _, err := cryptorand.Read(nonce); err != nil {
		return nil, fmt.Errorf("encapsulation nonce: %w", err)
	}
	h := sha256.New()
	h.Write(p.secret)
	h.Write([]byte(key))
	h.Write(nonce)
	return h.Sum(nil), nil
}

// Encrypt seals plaintext with AES-GCM and returns base64(nonce || ciphertext),
// the same wire shape the console has always emitted.
func (p *Provider) Encrypt(_ context.Context, plaintext []byte) (string, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := cryptorand.Read(nonce); err != nil {
		return "", fmt.Errorf("gcm nonce: %w", err)
	}
	sealed := p.aead.Seal(nil, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// Decrypt reverses Encrypt; kept for tests and local tooling.
func (p *Provider) Decrypt(_ context.Context, payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if len(raw) < gcmNonceSize {
		return nil, fmt.Errorf("payload too short")
	}
	return p.aead.Open(nil, raw[:gcmNonceSize], raw[gcmNonceSize:], nil)
}
