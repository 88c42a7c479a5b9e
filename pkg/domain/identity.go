package domain

import (
	"encoding/json"
	"fmt"
)

// Identity is the signed-in user as reported by GET /auth/me.
type Identity struct {
	Username string   `json:"username"`
	FullName *string  `json:"fullName,omitempty"`
	Role     *string  `json:"role,omitempty"`
	Roles    []string `json:"roles,omitempty"`

	roles RoleSet
}

// UnmarshalJSON accepts "roles" as either a single string or an array and
// builds the normalized role set once.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Username string          `json:"username"`
		FullName *string         `json:"fullName"`
		Role     *string         `json:"role"`
		Roles    json.RawMessage `json:"roles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var roles []string
	if len(raw.Roles) > 0 && string(raw.Roles) != "null" {
		var single string
		if err := json.Unmarshal(raw.Roles, &single); err == nil {
			if single != "" {
				roles = []string{single}
			}
		} else if err := json.Unmarshal(raw.Roles, &roles); err != nil {
			return fmt.Errorf("identity roles: %w", err)
		}
	}

	*i = Identity{
		Username: raw.Username,
		FullName: raw.FullName,
		Role:     raw.Role,
		Roles:    roles,
	}
	i.roles = i.buildRoleSet()
	return nil
}

// RoleSet returns the normalized roles of the identity. Identities built in
// code (not decoded) get their set computed on first use.
func (i *Identity) RoleSet() RoleSet {
	if i == nil {
		return nil
	}
	if i.roles == nil {
		i.roles = i.buildRoleSet()
	}
	return i.roles
}

// PrimaryRole is the role shown next to the username: the first entry of
// roles, falling back to role.
func (i *Identity) PrimaryRole() string {
	if i == nil {
		return ""
	}
	for _, r := range i.Roles {
		if n := NormalizeRole(r); n != "" {
			return n
		}
	}
	if i.Role != nil {
		return NormalizeRole(*i.Role)
	}
	return ""
}

// DisplayName prefers the full name over the username.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.FullName != nil && *i.FullName != "" {
		return *i.FullName
	}
	return i.Username
}

func (i *Identity) buildRoleSet() RoleSet {
	all := make([]string, 0, len(i.Roles)+1)
	if i.Role != nil {
		all = append(all, *i.Role)
	}
	all = append(all, i.Roles...)
	return NewRoleSet(all...)
}
