package auth

import "errors"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleGuest  = "guest"
)

var Permissions = map[string][]string{
	RoleAdmin: {
		"orders:write",
		"payments:write",
		"billing:write",
		"settlements:read",
		"settlements:write",
	},
	RoleMember: {
		"orders:write",
		"payments:write",
		"billing:write",
	},
	RoleGuest: {
		"orders:write",
		"payments:write",
	},
}

func HasPermission(role, permission string) bool {
	for _, p := range Permissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAdmin(claims *Claims) bool {
	return claims.Role == RoleAdmin
}

func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RoleMember, RoleGuest:
		return nil
	default:
		return errors.New("invalid role")
	}
}
