package rbac

import "strings"

// basicCapabilities are granted to every RegularUser-tier identity
// regardless of its attached privileges. This is the documented
// basic-access grant for self-service screens.
var basicCapabilities = canonicalSet(
	"view_own_profile",
	"edit_own_profile",
	"view_own_attendance",
	"view_own_payslip",
	"request_leave",
)

// Evaluator turns a decoded identity and a requested capability into an
// access decision. All methods are nil-safe and fail closed: an absent
// identity classifies as Unclassified and is denied every capability.
type Evaluator struct{}

// NewEvaluator constructs an Evaluator.
func NewEvaluator() Evaluator {
	return Evaluator{}
}

// ClassifyTier derives the coarse role tier. First match wins, and
// administrative tiers always dominate: an identity tagged both manager
// and employee classifies as Manager, never RegularUser.
func (Evaluator) ClassifyTier(id *Identity) Tier {
	if id == nil {
		return TierUnclassified
	}
	if id.IsSuperAdmin || strings.EqualFold(id.Username, "superadmin") || HasAnyRole(id.Roles, superAdminRoles) {
		return TierSuperAdmin
	}
	if HasAnyRole(id.Roles, hrRoles) {
		return TierHR
	}
	if HasAnyRole(id.Roles, managerRoles) {
		return TierManager
	}
	if HasAnyRole(id.Roles, regularUserRoles) {
		return TierRegularUser
	}
	return TierUnclassified
}

// IsSuperAdmin reports whether the identity classifies as SuperAdmin tier.
func (e Evaluator) IsSuperAdmin(id *Identity) bool {
	return e.ClassifyTier(id) == TierSuperAdmin
}

// IsHR reports whether the identity classifies as HR tier.
func (e Evaluator) IsHR(id *Identity) bool {
	return e.ClassifyTier(id) == TierHR
}

// IsManager reports whether the identity classifies as Manager tier.
func (e Evaluator) IsManager(id *Identity) bool {
	return e.ClassifyTier(id) == TierManager
}

// IsRegularUser reports whether the identity classifies as RegularUser
// tier. Route redirects use this to send non-privileged users to the
// restricted landing page instead of the admin dashboard.
func (e Evaluator) IsRegularUser(id *Identity) bool {
	return e.ClassifyTier(id) == TierRegularUser
}

// UserRole returns the coarse role string exposed to the console pages:
// one of superadmin, hr, manager, or user. Unclassified identities report
// "user" so the UI always has a renderable role label.
func (e Evaluator) UserRole(id *Identity) string {
	switch e.ClassifyTier(id) {
	case TierSuperAdmin:
		return "superadmin"
	case TierHR:
		return "hr"
	case TierManager:
		return "manager"
	default:
		return "user"
	}
}

// HasCapability decides whether the identity may exercise the named
// capability. SuperAdmin tier is a total override. RegularUser tier is
// granted the fixed basic allow-list unconditionally. Otherwise the
// capability must match an attached privilege by canonical name; there is
// no wildcard or hierarchical matching.
func (e Evaluator) HasCapability(id *Identity, capability string) bool {
	if id == nil {
		return false
	}
	tier := e.ClassifyTier(id)
	if tier == TierSuperAdmin {
		return true
	}
	want := Canonicalize(capability)
	if want == "" {
		return false
	}
	if tier == TierRegularUser {
		if _, ok := basicCapabilities[want]; ok {
			return true
		}
	}
	for i := range id.Privileges {
		if CanonicalizeRef(&id.Privileges[i]) == want {
			return true
		}
	}
	return false
}

// HasAllCapabilities reports whether every listed capability is granted.
func (e Evaluator) HasAllCapabilities(id *Identity, capabilities []string) bool {
	for _, c := range capabilities {
		if !e.HasCapability(id, c) {
			return false
		}
	}
	return true
}
