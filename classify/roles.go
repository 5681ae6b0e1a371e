package classify

import (
	"sort"
	"strings"
)

// PublicRole is the implicit role of every node that carries no marker.
const PublicRole = "public"

// Role is a named access category. Value-parameterized roles (custid and
// friends) additionally carry the identifier extracted from the matched
// marker; authorization needs the exact identifier, not just the name.
type Role struct {
	Name  string
	Value string
}

func Public() Role {
	return Role{Name: PublicRole}
}

func (r Role) IsPublic() bool {
	return r.Name == PublicRole
}

func (r Role) String() string {
	if r.Value == "" {
		return r.Name
	}
	return r.Name + ":" + r.Value
}

// ParseRole reads the "name" or "name:value" form produced by String.
func ParseRole(s string) Role {
	name, value, found := strings.Cut(s, ":")
	if !found {
		return Role{Name: strings.ToLower(strings.TrimSpace(s))}
	}
	return Role{
		Name:  strings.ToLower(strings.TrimSpace(name)),
		Value: strings.TrimSpace(value),
	}
}

type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s RoleSet) Add(r Role) {
	s[r] = struct{}{}
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Effective merges the inherited role set with a node's own markers.
// The implicit public is a fallback, not a grant: a single restricting
// role anywhere on the path pushes it out, so restricted nodes never
// carry public in their effective set.
func (s RoleSet) Effective(other RoleSet) RoleSet {
	out := make(RoleSet, len(s)+len(other))
	for r := range s {
		if !r.IsPublic() {
			out[r] = struct{}{}
		}
	}
	for r := range other {
		if !r.IsPublic() {
			out[r] = struct{}{}
		}
	}
	if len(out) == 0 {
		out.Add(Public())
	}
	return out
}

// PublicOnly reports whether the set grants nothing beyond the implicit
// public role.
func (s RoleSet) PublicOnly() bool {
	for r := range s {
		if !r.IsPublic() {
			return false
		}
	}
	return true
}

func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r.String())
	}
	sort.Strings(out)
	return out
}
