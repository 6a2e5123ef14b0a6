// Package identity derives a privacy-preserving actor identity for
// anonymous requests. Callers are recognized either by an opaque client
// token they hold, or by a salted one-way digest of their network
// address. The raw address is never stored or logged.
package identity

import (
	"crypto/sha256"
	"encoding/hex"

	apierrors "github.com/blogpulse/backend/internal/errors"
	"github.com/google/uuid"
)

// Kind discriminates the two identity variants
type Kind int

const (
	// KindToken is a caller-held opaque token (UUID format)
	KindToken Kind = iota + 1
	// KindAddressHash is a salted digest of the caller's network address
	KindAddressHash
)

// Identity is a tagged variant: exactly one of token or address hash.
// Constructed only through Resolver so an Identity in hand is always valid.
type Identity struct {
	kind  Kind
	value string
}

// Kind returns the variant tag
func (id Identity) Kind() Kind {
	return id.kind
}

// Token returns the client token and true when this is a token identity
func (id Identity) Token() (string, bool) {
	if id.kind == KindToken {
		return id.value, true
	}
	return "", false
}

// AddressHash returns the address digest and true when this is a hash identity
func (id Identity) AddressHash() (string, bool) {
	if id.kind == KindAddressHash {
		return id.value, true
	}
	return "", false
}

// IsZero reports whether no identity was resolved
func (id Identity) IsZero() bool {
	return id.kind == 0
}

// Resolver turns request attributes into identities
type Resolver struct {
	salt string
}

// NewResolver creates a resolver with the given address-hash salt
func NewResolver(salt string) *Resolver {
	return &Resolver{salt: salt}
}

// Resolve produces an identity from an optional client token and the
// caller's network address. A supplied token must be UUID-formatted;
// a malformed token is a validation error, not a silent fallback to the
// address. With no token the address is hashed; with neither, resolution
// fails and dedup-requiring actions must be rejected.
func (r *Resolver) Resolve(clientToken, addr string) (Identity, error) {
	if clientToken != "" {
		if !ValidToken(clientToken) {
			return Identity{}, apierrors.ValidationError("clientId", "clientId must be a valid UUID")
		}
		return Identity{kind: KindToken, value: clientToken}, nil
	}

	if addr != "" {
		return Identity{kind: KindAddressHash, value: r.HashAddress(addr)}, nil
	}

	return Identity{}, apierrors.ValidationError("clientId", "unable to identify client: supply a clientId or a resolvable address")
}

// HashAddress computes the salted one-way digest of a network address
func (r *Resolver) HashAddress(addr string) string {
	sum := sha256.Sum256([]byte(r.salt + addr))
	return hex.EncodeToString(sum[:])
}

// ValidToken reports whether s matches the opaque-token format
func ValidToken(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// NewToken issues a fresh client token. The API hands this back to
// callers that arrived without one so they can persist it for future
// requests; it never substitutes for identity on the current request.
func NewToken() string {
	return uuid.New().String()
}
