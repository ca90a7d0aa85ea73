package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleClient, PermApproveCompletion, true},
		{RoleClient, PermApproveMilestone, true},
		{RoleClient, PermSubmitCompletion, false},
		{RoleFreelancer, PermSubmitCompletion, true},
		{RoleFreelancer, PermApproveCompletion, false},
		{RoleFreelancer, PermEditContract, false},
		{RoleAdmin, PermExecuteAdminAction, true},
		{RoleAdmin, PermSignContract, false},
		{"unknown", PermSignContract, false},
	}
	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}

func TestIsSettlementOperation(t *testing.T) {
	if !IsSettlementOperation(PermApproveCompletion) {
		t.Error("approve_completion should be a settlement operation")
	}
	if !IsSettlementOperation(PermApproveMilestone) {
		t.Error("approve_milestone should be a settlement operation")
	}
	if IsSettlementOperation(PermRejectCompletion) {
		t.Error("reject_completion should not be a settlement operation")
	}
}
