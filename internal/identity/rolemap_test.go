package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/actworks/control-tower/internal/domain"
)

func TestRoleForGroup(t *testing.T) {
	tests := []struct {
		group string
		want  domain.Role
	}{
		{"GRP_Warehouse_Admin", domain.RoleAdmin},
		{"GRP_Leadership", domain.RoleManager},
		{"GRP_Supervisor", domain.RoleSupervisor},
		{"GRP_Maintenance", domain.RoleTechnician},
		{"GRP_Operator", domain.RoleOperator},
		{"GRP_Support_Staff", domain.RoleSupport},
		{"GRP_Safety_Officer", domain.RoleSafety},
		{"GRP_Unknown", domain.RoleViewer},
		{"", domain.RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleForGroup(tt.group))
		})
	}
}
