package models

// Identity is the already-authenticated caller, as supplied by the
// identity collaborator (the JWT middleware in the HTTP binding). The
// gate trusts these values and performs no authentication of its own.
type Identity struct {
	ID   string
	Role string // "admin" or "user"
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// IsAdmin returns true if the identity has admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
