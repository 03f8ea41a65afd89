package user

import "testing"

func TestAllowed(t *testing.T) {
	admin := User{ID: "adm", Role: RoleAdmin}
	manager := User{ID: "mgr", Role: RoleManager}
	teamLead := User{ID: "tl", Role: RoleTeamLead}
	srManager := User{ID: "srmgr", Role: RoleSeniorManager}
	employee := User{ID: "emp", Role: RoleEmployee}

	tests := []struct {
		name       string
		usr        User
		capability Capability
		ownerID    []string
		want       bool
	}{
		{name: "admin manages users", usr: admin, capability: CapManageUsers, want: true},
		{name: "manager manages users", usr: manager, capability: CapManageUsers, want: true},
		{name: "team lead manages users", usr: teamLead, capability: CapManageUsers, want: true},
		{name: "senior manager manages users", usr: srManager, capability: CapManageUsers, want: true},
		{name: "employee cannot manage users", usr: employee, capability: CapManageUsers, want: false},

		{name: "manager manages teams", usr: manager, capability: CapManageTeams, want: true},
		{name: "employee cannot manage teams", usr: employee, capability: CapManageTeams, want: false},

		{name: "manager manages approvals", usr: manager, capability: CapManageApprovals, want: true},
		{name: "employee cannot manage approvals", usr: employee, capability: CapManageApprovals, want: false},

		{name: "admin only passes admin", usr: admin, capability: CapAdminOnly, want: true},
		{name: "admin only blocks manager", usr: manager, capability: CapAdminOnly, want: false},
		{name: "admin only blocks employee", usr: employee, capability: CapAdminOnly, want: false},

		{name: "owner passes owner check", usr: employee, capability: CapOwnerOrAdmin, ownerID: []string{"emp"}, want: true},
		{name: "non-owner fails owner check", usr: employee, capability: CapOwnerOrAdmin, ownerID: []string{"mgr"}, want: false},
		{name: "admin passes any owner check", usr: admin, capability: CapOwnerOrAdmin, ownerID: []string{"emp"}, want: true},
		{name: "manager is not owner-or-admin", usr: manager, capability: CapOwnerOrAdmin, ownerID: []string{"emp"}, want: false},
		{name: "missing owner fails", usr: employee, capability: CapOwnerOrAdmin, want: false},
		{name: "empty owner fails", usr: employee, capability: CapOwnerOrAdmin, ownerID: []string{""}, want: false},

		{name: "unknown capability denies", usr: admin, capability: Capability("nope"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.usr, tt.capability, tt.ownerID...); got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}
