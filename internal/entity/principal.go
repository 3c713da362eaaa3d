// Structure of an authenticated Principal in the command centre.

package entity

// Roles admitted onto the privileged channels.
const (
	RoleSuperAdmin = "super_admin"
	RoleOrgOwner   = "org_owner"
	RoleOrgAdmin   = "org_admin"
	RoleController = "controller"
)

// Principal is the identity behind a connection or a REST request.
// Lives only as long as the connection or request that produced it.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}
