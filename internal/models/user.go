package models

import "strconv"

// UserStatus is the account state managed by administrators.
type UserStatus string

const (
	UserActive    UserStatus = "Active"
	UserSuspended UserStatus = "Suspended"
)

// DefaultRoles are the roles offered before any custom role is added.
var DefaultRoles = []string{"Admin", "Event Organizer", "Viewer", "Volunteer", "Event Staff / Scan"}

// User is an administrator-managed account stored under hh_users.
// Password is kept as given unless password hashing is enabled in config.
type User struct {
	ID       FlexInt    `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	LoginID  string     `json:"loginID"`
	Password string     `json:"password"`
	Role     string     `json:"role"`
	CanLogin bool       `json:"canLogin"`
	Status   UserStatus `json:"status"`
}

// UserPublic is User without the credential for API responses.
type UserPublic struct {
	ID       FlexInt    `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	LoginID  string     `json:"loginID"`
	Role     string     `json:"role"`
	CanLogin bool       `json:"canLogin"`
	Status   UserStatus `json:"status"`
}

// UserKey returns the store identity of a user.
func UserKey(u User) string {
	return strconv.FormatInt(int64(u.ID), 10)
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		LoginID:  u.LoginID,
		Role:     u.Role,
		CanLogin: u.CanLogin,
		Status:   u.Status,
	}
}
