package auth

import "strings"

// Role identifies the category of the acting principal
type Role string

const (
	// RoleUnknown is used for unauthenticated or unrecognised principals
	RoleUnknown Role = ""
	// RoleUser is the end user (player) role
	RoleUser    Role = "User"
	// RolePeer is the peer/agent role
	RolePeer    Role = "Peer"
	// RoleSA is the super-admin role
	RoleSA      Role = "SA"
)

var roleAliases = map[string]Role{
	"user":        RoleUser,
	"player":      RoleUser,
	"peer":        RolePeer,
	"agent":       RolePeer,
	"sa":          RoleSA,
	"superadmin":  RoleSA,
	"super_admin": RoleSA,
}

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RolePeer, RoleSA:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "Unknown"
	}
	return string(r)
}

// EntryRoute returns the login entry point a principal with this role
// should be sent to.
func (r Role) EntryRoute(routes Routes) string {
	switch r {
	case RoleSA:
		return routes.AdminLogin
	case RolePeer:
		return routes.PeerLogin
	default:
		return routes.Login
	}
}

// HomeRoute returns the landing page for the role
func (r Role) HomeRoute(routes Routes) string {
	switch r {
	case RoleSA:
		return routes.AdminDashboard
	case RolePeer:
		return routes.PeerDashboard
	case RoleUser:
		return routes.UserDashboard
	default:
		return routes.Login
	}
}

// GetAllRoles returns all known roles
func GetAllRoles() []Role {
	return []Role{
		RoleUser,
		RolePeer,
		RoleSA,
	}
}

// ParseRole maps the raw discriminant sent by the API into a Role.
// Unrecognised values map to RoleUnknown.
func ParseRole(raw string) Role {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return RoleUnknown
	}
	if role, ok := roleAliases[key]; ok {
		return role
	}
	return RoleUnknown
}
