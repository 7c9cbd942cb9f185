package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is one of a closed set of account roles. Anything outside the set is
// rejected when parsing, scanning from the database or writing to it.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RolePublicRelation Role = "PublicRelation"
	RoleMember         Role = "Member"
)

// Roles lists every valid role, most privileged first
var Roles = []Role{RoleAdmin, RolePublicRelation, RoleMember}

// ParseRole accepts the stored form ("PublicRelation") as well as the
// display form ("Public Relation"), case-insensitively.
func ParseRole(s string) (Role, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	for _, r := range Roles {
		if strings.EqualFold(compact, string(r)) {
			return r, nil
		}
	}

	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePublicRelation, RoleMember:
		return true
	}

	return false
}

// DisplayName returns the human readable form of the role
func (r Role) DisplayName() string {
	if r == RolePublicRelation {
		return "Public Relation"
	}

	return string(r)
}

// In reports whether r is one of allowed
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}

	return false
}

// Value implements the driver.Valuer interface.
func (r Role) Value() (driver.Value, error) {
	if r == "" {
		return string(RoleMember), nil
	}

	if !r.Valid() {
		return nil, fmt.Errorf("refusing to store invalid role %q", string(r))
	}

	return string(r), nil
}

// Scan implements the sql.Scanner interface.
func (r *Role) Scan(value any) error {
	var str string

	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	case nil:
		return fmt.Errorf("failed to scan Role, got NULL")
	default:
		return fmt.Errorf("failed to scan Role, %v", value)
	}

	parsed, err := ParseRole(str)
	if err != nil {
		return err
	}

	*r = parsed
	return nil
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}

	*r = parsed
	return nil
}
