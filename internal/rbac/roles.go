package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleClerk   = "clerk"
	// RoleIntegration is the POS back end's service account. Hidden: it is
	// denied unless a route names it explicitly.
	RoleIntegration = "integration"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsHiddenRole(role string) bool { return role == RoleIntegration }
