package placements

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Role identifies which party an actor represents. Identity itself is owned
// by an external provider; this domain only checks the role against each
// operation's authorization rule.
type Role string

// Actor roles.
const (
	RoleEmployer  Role = "employer"
	RoleCandidate Role = "candidate"
	RoleSystem    Role = "system"
)

var roles = []Role{
	RoleEmployer,
	RoleCandidate,
	RoleSystem,
}

// Actor is the identity on whose behalf an operation executes.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (r Role) String() string {
	return string(r)
}

// ParseRole validates a string as a known actor role.
func ParseRole(s string) (Role, error) {
	v := Role(s)
	if !slices.Contains(roles, v) {
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known role.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = v
	return nil
}
