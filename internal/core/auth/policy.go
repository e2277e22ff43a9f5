package auth

import (
	"errors"

	"catalog-api/internal/domain"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type PolicyKind uint8

const (
	KindPublic PolicyKind = iota
	KindAuthenticated
	KindAdminOnly
	KindAdminOrSelf
)

// Policy is attached to a route declaration and evaluated by the gate.
type Policy struct {
	Kind  PolicyKind
	Param string // path parameter holding the target user id (AdminOrSelf)
}

var (
	Public        = Policy{Kind: KindPublic}
	Authenticated = Policy{Kind: KindAuthenticated}
	AdminOnly     = Policy{Kind: KindAdminOnly}
)

func AdminOrSelf(param string) Policy { return Policy{Kind: KindAdminOrSelf, Param: param} }

func (p Policy) RequiresSession() bool { return p.Kind != KindPublic }

func (p Policy) String() string {
	switch p.Kind {
	case KindPublic:
		return "public"
	case KindAuthenticated:
		return "authenticated"
	case KindAdminOnly:
		return "admin-only"
	case KindAdminOrSelf:
		return "admin-or-self(" + p.Param + ")"
	default:
		return "unknown"
	}
}

// Evaluate decides whether claims satisfy the policy. param resolves path
// parameters by name. Unknown kinds are denied.
func (p Policy) Evaluate(c *Claims, param func(string) string) error {
	if p.Kind == KindPublic {
		return nil
	}
	if c == nil || c.UID == "" {
		return ErrUnauthenticated
	}
	switch p.Kind {
	case KindAuthenticated:
		return nil
	case KindAdminOnly:
		if c.Role == domain.RoleAdmin {
			return nil
		}
	case KindAdminOrSelf:
		if c.Role == domain.RoleAdmin {
			return nil
		}
		if param != nil && p.Param != "" && c.UID == param(p.Param) {
			return nil
		}
	}
	return ErrForbidden
}
