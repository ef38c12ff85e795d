// Package auth provides JWT authentication middleware, token issuance, and
// the ownership/role authorization gate used by all resource routes.
package auth

import "context"

// RoleAdmin is the only role with cross-owner access.
const RoleAdmin = "admin"

// Identity is the authenticated caller extracted from a verified token.
// It lives for the duration of a single request and is never persisted.
type Identity struct {
	ID   string
	Role string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the given identity.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFromContext returns the request identity, or nil when the request
// was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey).(*Identity)
	return ident
}
