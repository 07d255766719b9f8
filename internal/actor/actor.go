package actor

import (
	"context"
	"errors"
)

// Role is the trust level of a caller. Authentication happens elsewhere;
// this package only carries an already-validated identity around.
type Role string

const (
	// RoleAdmin may mutate the committed store directly and resolve any request.
	RoleAdmin Role = "admin"
	// RoleProposer may submit, edit and cancel its own pending requests.
	RoleProposer Role = "proposer"
	// RoleViewer may only read merged views.
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProposer, RoleViewer:
		return true
	}

	return false
}

// ErrPermissionDenied is returned when the caller's role is insufficient.
var ErrPermissionDenied = errors.New("permission denied")

// Identity is the caller as established by the transport layer.
type Identity struct {
	Username string
	Role     Role
}

// CanPropose reports whether the identity may submit pending requests.
func (id Identity) CanPropose() bool {
	return id.Role == RoleAdmin || id.Role == RoleProposer
}

// IsAdmin reports whether the identity is the full-trust operator.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity set by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
