package constants

import "bricknest-backend/internal/domain"

// PermissionRoles maps each permission to the roles allowed to perform it.
// Document-level actor checks (only the request's seller approves it, only the
// listing owner edits it) live in the services; this table only gates routes.
var PermissionRoles = map[string][]string{
	CreateProperty:   {domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	CreateOffering:   {domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	ActivateOffering: {domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	CloseOffering:    {domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	SubmitRequest:    {domain.RoleBuyer, domain.RoleTenant, domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	CreateListing:    {domain.RoleBuyer, domain.RoleTenant, domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	PurchaseListing:  {domain.RoleBuyer, domain.RoleTenant, domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
	ViewMarketplace:  {domain.RoleBuyer, domain.RoleTenant, domain.RoleLandlord, domain.RoleManager, domain.RoleSuperadmin},
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
