package auth

import (
	"crypto/subtle"
	"errors"
)

// HeaderName carries the shared service key.
const HeaderName = "X-API-KEY"

var (
	ErrSecretsNotLoaded = errors.New("database secrets not loaded")
	ErrNoAccessKey      = errors.New("service access key not configured")
	ErrMissingKey       = errors.New("missing api key header")
	ErrInvalidKey       = errors.New("invalid api key")
)

// Gate is the shared-secret check in front of every message route.
// It is built once at startup and never changes.
type Gate struct {
	accessKey     []byte
	secretsLoaded bool
}

func NewGate(accessKey string, secretsLoaded bool) *Gate {
	return &Gate{accessKey: []byte(accessKey), secretsLoaded: secretsLoaded}
}

// SecretsLoaded reports whether the database secrets were present and the store was built.
func (g *Gate) SecretsLoaded() bool {
	return g.secretsLoaded
}

// Check validates the values of the key header. The returned error says which condition
// failed and is meant for server logs only.
func (g *Gate) Check(values []string) error {
	if !g.secretsLoaded {
		return ErrSecretsNotLoaded
	}
	if len(g.accessKey) == 0 {
		return ErrNoAccessKey
	}
	if len(values) == 0 {
		return ErrMissingKey
	}
	if subtle.ConstantTimeCompare([]byte(values[0]), g.accessKey) != 1 {
		return ErrInvalidKey
	}
	return nil
}
