package domain

import (
	"sort"
	"strings"
)

// Known role names after normalization.
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleGerente     = "GERENTE"
	RoleSupervisao  = "SUPERVISAO"
	RoleLogistica   = "LOGISTICA"
	RoleOperador    = "OPERADOR"
	RoleRH          = "RH"
)

// RoleSet is a normalized, deduplicated set of role names.
type RoleSet map[string]struct{}

// NormalizeRole upper-cases r, trims it and strips a leading "ROLE_".
func NormalizeRole(r string) string {
	r = strings.ToUpper(strings.TrimSpace(r))
	return strings.TrimSpace(strings.TrimPrefix(r, "ROLE_"))
}

// NewRoleSet normalizes roles into a set. Empty entries are dropped.
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if n := NormalizeRole(r); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether role (normalized) is in the set.
func (s RoleSet) Has(role string) bool {
	_, ok := s[NormalizeRole(role)]
	return ok
}

// Intersects reports whether s and other share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for r := range small {
		if _, ok := large[r]; ok {
			return true
		}
	}
	return false
}

// Sorted returns the roles in lexical order.
func (s RoleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// String renders the set as a comma separated list.
func (s RoleSet) String() string {
	return strings.Join(s.Sorted(), ", ")
}
