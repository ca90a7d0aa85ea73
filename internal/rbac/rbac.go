package rbac

// Role constants
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// Permission constants
const (
	PermSignContract       = "sign_contract"
	PermEditContract       = "edit_contract"
	PermCancelContract     = "cancel_contract"
	PermSubmitCompletion   = "submit_completion"
	PermApproveCompletion  = "approve_completion"
	PermRejectCompletion   = "reject_completion"
	PermApproveMilestone   = "approve_milestone"
	PermRejectMilestone    = "reject_milestone"
	PermOpenDispute        = "open_dispute"
	PermExecuteAdminAction = "execute_admin_action"
)

// RolePermissions defines what each role can do on a contract it is a
// party to. Admin bypasses party checks entirely.
var RolePermissions = map[string][]string{
	RoleClient: {
		PermSignContract, PermEditContract, PermCancelContract,
		PermApproveCompletion, PermRejectCompletion,
		PermApproveMilestone, PermRejectMilestone,
		PermOpenDispute,
	},
	RoleFreelancer: {
		PermSignContract, PermCancelContract,
		PermSubmitCompletion, PermOpenDispute,
	},
	RoleAdmin: {
		PermExecuteAdminAction,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// IsSettlementOperation reports whether a permission moves money.
func IsSettlementOperation(permission string) bool {
	return permission == PermApproveCompletion || permission == PermApproveMilestone
}
