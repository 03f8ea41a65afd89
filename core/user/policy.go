package user

// Capability names an action gated by role. All role checks go through the
// single table below instead of ad-hoc string comparisons per endpoint.
type Capability string

const (
	CapManageUsers     Capability = "manage-users"
	CapManageTeams     Capability = "manage-teams"
	CapManageApprovals Capability = "manage-approvals"
	CapAdminOnly       Capability = "admin-only"
	CapOwnerOrAdmin    Capability = "owner-or-admin"
)

var capabilityRoles = map[Capability][]string{
	CapManageUsers:     ManagerRoles,
	CapManageTeams:     ManagerRoles,
	CapManageApprovals: ManagerRoles,
	CapAdminOnly:       {RoleAdmin},
}

// Allowed reports whether usr may perform the given capability. For
// CapOwnerOrAdmin, ownerID identifies the resource owner: admins pass, and
// so does the owner themself. Pure function; evaluated per request.
func Allowed(usr User, cap Capability, ownerID ...string) bool {
	if cap == CapOwnerOrAdmin {
		if usr.IsAdmin() {
			return true
		}
		return len(ownerID) > 0 && ownerID[0] != "" && ownerID[0] == usr.ID
	}
	for _, role := range capabilityRoles[cap] {
		if usr.Role == role {
			return true
		}
	}
	return false
}
