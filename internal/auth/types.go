package auth

import "time"

// Role tags carried by accounts and tokens.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// ValidRole reports whether role is one of the three known tags.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// StaffRole reports whether role grants unrestricted read access to score
// records.
func StaffRole(role string) bool {
	return role == RoleAdmin || role == RoleTeacher
}

// Account is one login credential. AccountID is the institutional identifier
// of the underlying person; Username is their email.
type Account struct {
	AccountID    string    `json:"accountId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the non-sensitive slice of an account returned after login.
type Profile struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	AccountID string `json:"accountId"`
}

// Profile strips the account down to its public fields.
func (a Account) Profile() Profile {
	return Profile{Username: a.Username, Role: a.Role, AccountID: a.AccountID}
}
