package identity

import "github.com/actworks/control-tower/internal/domain"

// groupRoles maps directory groups to application roles. Membership in a
// group is the only source of a role; users outside every known group fall
// back to viewer.
var groupRoles = map[string]domain.Role{
	"GRP_Warehouse_Admin": domain.RoleAdmin,
	"GRP_Leadership":      domain.RoleManager,
	"GRP_Supervisor":      domain.RoleSupervisor,
	"GRP_Maintenance":     domain.RoleTechnician,
	"GRP_Operator":        domain.RoleOperator,
	"GRP_Support_Staff":   domain.RoleSupport,
	"GRP_Safety_Officer":  domain.RoleSafety,
}

// RoleForGroup resolves a directory group to an application role.
// Unknown and empty groups resolve to viewer.
func RoleForGroup(group string) domain.Role {
	if role, ok := groupRoles[group]; ok {
		return role
	}
	return domain.RoleViewer
}
