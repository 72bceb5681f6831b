package rbac

import (
	"encoding/json"
	"fmt"
)

// RoleRef is a role or privilege reference as delivered by the identity
// service. The wire shape is heterogeneous: either a bare name string or a
// structured {id, name} object. Both forms resolve to the same canonical
// name, and nothing downstream branches on the original shape again.
type RoleRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts both the bare-string and the object form.
func (r *RoleRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		r.ID = 0
		r.Name = name
		return nil
	}
	type roleRef RoleRef
	var structured roleRef
	if err := json.Unmarshal(data, &structured); err != nil {
		return fmt.Errorf("rbac: decode role ref: %w", err)
	}
	*r = RoleRef(structured)
	return nil
}

// PrivilegeRef shares the heterogeneous wire shape of RoleRef.
type PrivilegeRef = RoleRef

// EmployeeRef links an identity to its employee record.
type EmployeeRef struct {
	ID         int64  `json:"id"`
	EmployeeID string `json:"employeeId,omitempty"`
	FullName   string `json:"fullName,omitempty"`
}

// Identity is the decoded actor evaluated by the permission engine.
type Identity struct {
	ID              int64          `json:"id"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	Roles           []RoleRef      `json:"roles"`
	Privileges      []PrivilegeRef `json:"privileges"`
	IsSuperAdmin    bool           `json:"isSuperAdmin"`
	EmployeeProfile *EmployeeRef   `json:"employeeProfile,omitempty"`
}

// Tier is the coarse role classification used for route-level gating.
type Tier int

const (
	// TierUnclassified is the fail-closed default for unknown or absent identities.
	TierUnclassified Tier = iota
	// TierRegularUser covers non-administrative staff accounts.
	TierRegularUser
	// TierManager covers team leads and supervisors.
	TierManager
	// TierHR covers human-resources staff.
	TierHR
	// TierSuperAdmin overrides every capability check.
	TierSuperAdmin
)

// String returns the tier label used in logs.
func (t Tier) String() string {
	switch t {
	case TierSuperAdmin:
		return "superadmin"
	case TierHR:
		return "hr"
	case TierManager:
		return "manager"
	case TierRegularUser:
		return "user"
	default:
		return "unclassified"
	}
}
