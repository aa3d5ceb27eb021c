package rbac

import (
	"context"
	"strings"
)

type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	perms, ok := c.RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// Actor is the authenticated caller, used for entered_by/updated_by stamps
// and role-gated operations.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Can reports whether the actor's role grants perm under the default policy.
func (a Actor) Can(perm string) bool { return defaultChecker.Has(a.Role, perm) }

// ---- actor in context ----

type ctxKey struct{}

var ctxKeyActor = ctxKey{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) Actor {
	if v := ctx.Value(ctxKeyActor); v != nil {
		if a, ok := v.(Actor); ok {
			return a
		}
	}
	return Actor{}
}
