package auth

import "testing"

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestRoleMatrix(t *testing.T) {
	cases := []struct {
		role string
		perm string
		want bool
	}{
		{RoleEmployee, PermVacationRequest, true},
		{RoleEmployee, PermVacationApprove, false},
		{RoleEmployee, PermReportsExport, false},
		{RoleSupervisor, PermVacationApprove, true},
		{RoleSupervisor, PermVacationManage, false},
		{RoleHR, PermVacationManage, true},
		{RoleHR, PermSystemAdmin, false},
		{RoleAdmin, PermSystemAdmin, true},
		{"Guest", PermVacationRead, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Can(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if !IsHR(RoleAdmin) || IsHR(RoleSupervisor) {
		t.Fatal("unexpected IsHR result")
	}
}
