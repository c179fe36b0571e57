package domain

import "time"

// Role is the caller's authorization level as reported by the identity provider.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Identity is the authenticated caller. Cart and order operations always act
// on Identity.UserID and never on an id taken from the request.
type Identity struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller may use back-office operations.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// User is a storefront account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
