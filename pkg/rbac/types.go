package rbac

import (
	"slices"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
)

// Resource represents a resource type in the system
type Resource string

const (
	ResourceGarage       Resource = "garage"
	ResourceSubAccount   Resource = "subaccount"
	ResourceTeam         Resource = "team"
	ResourceNotification Resource = "notification"
	ResourceBilling      Resource = "billing"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionInvite Action = "invite"
)

// Permission represents a specific permission (resource + action)
type Permission struct {
	Resource Resource `json:"resource"`
	Action   Action   `json:"action"`
}

// String returns a string representation of the permission
func (p Permission) String() string {
	return string(p.Resource) + ":" + string(p.Action)
}

var (
	PermissionGarageRead       = Permission{ResourceGarage, ActionRead}
	PermissionGarageWrite      = Permission{ResourceGarage, ActionUpdate}
	PermissionGarageDelete     = Permission{ResourceGarage, ActionDelete}
	PermissionSubAccountRead   = Permission{ResourceSubAccount, ActionRead}
	PermissionSubAccountCreate = Permission{ResourceSubAccount, ActionCreate}
	PermissionTeamRead         = Permission{ResourceTeam, ActionRead}
	PermissionTeamInvite       = Permission{ResourceTeam, ActionInvite}
	PermissionNotificationRead = Permission{ResourceNotification, ActionRead}
	PermissionBillingUpdate    = Permission{ResourceBilling, ActionUpdate}
)

var rolePermissions = map[auth.Role][]Permission{
	auth.RoleGarageOwner: {
		PermissionGarageRead, PermissionGarageWrite, PermissionGarageDelete,
		PermissionSubAccountRead, PermissionSubAccountCreate,
		PermissionTeamRead, PermissionTeamInvite,
		PermissionNotificationRead, PermissionBillingUpdate,
	},
	auth.RoleGarageAdmin: {
		PermissionGarageRead, PermissionGarageWrite,
		PermissionSubAccountRead, PermissionSubAccountCreate,
		PermissionTeamRead, PermissionTeamInvite,
		PermissionNotificationRead,
	},
	auth.RoleSubAccountUser: {
		PermissionGarageRead, PermissionSubAccountRead, PermissionNotificationRead,
	},
	auth.RoleSubAccountGuest: {
		PermissionGarageRead,
	},
}

// Permissions returns the permissions granted by role
func Permissions(role auth.Role) []Permission {
	return slices.Clone(rolePermissions[role])
}

// RoleHasPermission reports whether role grants perm
func RoleHasPermission(role auth.Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionCheckResult represents the result of a permission check
type PermissionCheckResult struct {
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	Role      auth.Role `json:"role,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
