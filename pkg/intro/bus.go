package intro

import (
	"context"
	"errors"
	"slices"
)

// AnyOrigin as a target origin delivers regardless of the receiver's origin.
const AnyOrigin = "*"

var ErrOriginMismatch = errors.New("intro: target origin does not match receiver")

// Bus posts signals to the embedding context. A restricted post must only be
// delivered when targetOrigin equals the receiver's origin.
type Bus interface {
	Post(ctx context.Context, sig Signal, targetOrigin string) error
}

// OriginPolicy decides whether an inbound message from origin is trusted.
type OriginPolicy func(origin string) bool

// TrustOrigins accepts self plus every listed origin. A "*" entry accepts
// everything.
func TrustOrigins(self string, trusted ...string) OriginPolicy {
	if slices.Contains(trusted, AnyOrigin) {
		return func(string) bool { return true }
	}
	return func(origin string) bool {
		return origin == self || slices.Contains(trusted, origin)
	}
}
