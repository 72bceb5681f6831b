package rbac

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Canonicalize reduces a role, privilege, or capability name to its
// comparable form: Unicode case folding plus removal of all whitespace and
// underscore characters. Two references denote the same role iff their
// canonical names are equal.
func Canonicalize(name string) string {
	folded := folder.String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}
		return r
	}, folded)
}

// CanonicalizeRef canonicalizes either form of a role reference.
func CanonicalizeRef(ref *RoleRef) string {
	if ref == nil {
		return ""
	}
	return Canonicalize(ref.Name)
}

// canonicalSet builds a membership set from canonical names.
func canonicalSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[Canonicalize(n)] = struct{}{}
	}
	return set
}

// HasAnyRole reports whether any reference canonicalizes into the target set.
func HasAnyRole(refs []RoleRef, target map[string]struct{}) bool {
	for i := range refs {
		if _, ok := target[CanonicalizeRef(&refs[i])]; ok {
			return true
		}
	}
	return false
}

// Fixed canonical role-tier sets. Membership is exact, no partial matches.
var (
	superAdminRoles  = canonicalSet("superadmin", "admin")
	managerRoles     = canonicalSet("manager", "teamlead", "supervisor")
	hrRoles          = canonicalSet("hr", "humanresources", "hrmanager")
	regularUserRoles = canonicalSet("roleuser", "user", "employee", "staff")
)
