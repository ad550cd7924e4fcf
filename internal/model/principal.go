package model

// Principal is the caller identity resolved from the bearer credential by
// the identity gateway. User ids are external identifiers, not uuids.
type Principal struct {
	ID       string
	Email    string
	FullName string
	Role     string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}
