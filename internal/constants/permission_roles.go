package constants

import "rightsdesk-backend/internal/pkg/constants"

// PermissionRoles maps each permission to the back-office roles allowed to perform it.
// Every mutation is admin-only; viewers can read.
var PermissionRoles = map[string][]string{
	ViewData:        {constants.Viewer, constants.Admin},
	ManageSongs:     {constants.Admin},
	ManageSplits:    {constants.Admin},
	ManageContracts: {constants.Admin},
	SendBroadcasts:  {constants.Admin},
	ManageSmartLink: {constants.Admin},
	ManageUsers:     {constants.Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
