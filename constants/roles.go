package constants

// Role is a canonical work-item role classification.
type Role string

const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
	RoleQA       Role = "qa"
	RoleDevOps   Role = "devops"
	RoleDesigner Role = "designer"
	RoleAnalyst  Role = "analyst"
	RolePM       Role = "pm"
)

// CanonicalRoles lists every role the pipeline recognizes after
// synonym normalization.
var CanonicalRoles = []Role{
	RoleBackend, RoleFrontend, RoleQA, RoleDevOps, RoleDesigner, RoleAnalyst, RolePM,
}
