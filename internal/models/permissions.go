package models

// Permission constants
const (
	PermissionRead     = "read"
	PermissionDeposit  = "deposit"
	PermissionTransfer = "transfer"
)

// GetDefaultPermissions returns the permissions granted to a signed-in owner.
func GetDefaultPermissions() []string {
	return []string{PermissionRead, PermissionDeposit, PermissionTransfer}
}
