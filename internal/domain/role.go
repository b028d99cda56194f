package domain

// Role is the authorization role carried by a subject.
type Role string

const (
	RoleCitizen    Role = "CITIZEN"
	RoleClerk      Role = "CLERK"
	RoleFieldAgent Role = "FIELD_AGENT"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// StaffRoles lists the roles a staff member can hold.
var StaffRoles = []Role{RoleClerk, RoleFieldAgent, RoleSupervisor, RoleAdmin}

// ValidStaffRole reports whether r is an assignable staff role.
func ValidStaffRole(r Role) bool {
	for _, role := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}
