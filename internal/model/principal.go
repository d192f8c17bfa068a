package model

// Role is the caller role supplied by the auth collaborator.
type Role string

const (
	RoleAnonymous Role = ""
	RoleGuest     Role = "guest"
	RoleHotelier  Role = "hotelier"
	RoleAdmin     Role = "admin"
)

// Principal is an already authenticated caller.  The engine trusts it and
// only decides whether the role may perform an operation.
type Principal struct {
	UserID uint64
	Role   Role
}

// Anonymous is the principal used when a request carries no token.
var Anonymous = Principal{}

// IsAnonymous reports whether no user is attached to the principal.
func (p Principal) IsAnonymous() bool { return p.UserID == 0 }

// CanDriveLifecycle reports whether the role may request status
// transitions at all.  Property ownership is checked separately.
func (p Principal) CanDriveLifecycle() bool {
	return p.Role == RoleHotelier || p.Role == RoleAdmin
}

// CanManage reports whether the principal may operate bookings of a
// property owned by ownerID.
func (p Principal) CanManage(ownerID uint64) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleHotelier:
		return p.UserID != 0 && p.UserID == ownerID
	}
	return false
}
