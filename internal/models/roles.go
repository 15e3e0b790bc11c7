package models

// RoleUser is granted to every registered identity.
const RoleUser = "ROLE_USER"

// HasRole reports whether roles contains role.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
