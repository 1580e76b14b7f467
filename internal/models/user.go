package models

import "strings"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const (
	SeededAdminID  int64 = 1
	SeededMemberID int64 = 2

	// SeededAdminUsername is the remote key that carries the shared
	// identity list alongside the admin's own snapshot.
	SeededAdminUsername = "talal"
)

// User is an identity record in the shared identity list. Secrets are plain
// shared strings: the same value must compare byte-for-byte on every device
// and in the remote list, so no hashing is applied anywhere.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Secret      string `json:"password"`
	DisplayName string `json:"name"`
	Role        string `json:"role"`
}

func (user User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

// IsSeeded reports whether the user is one of the two built-in identities
// that always exist and can never be deleted.
func (user User) IsSeeded() bool {
	return user.ID == SeededAdminID || user.ID == SeededMemberID
}

// MatchesCredentials compares case-insensitively on username and exactly on
// the secret.
func (user User) MatchesCredentials(username string, secret string) bool {
	return strings.EqualFold(user.Username, username) && user.Secret == secret
}

func SeededAdmin() User {
	return User{
		ID:          SeededAdminID,
		Username:    SeededAdminUsername,
		Secret:      "00966",
		DisplayName: "المدير طلال",
		Role:        RoleAdmin,
	}
}

func SeededMember() User {
	return User{
		ID:          SeededMemberID,
		Username:    "khaled",
		Secret:      "2030",
		DisplayName: "المندوب خالد",
		Role:        RoleMember,
	}
}

func SeededUsers() []User {
	return []User{SeededAdmin(), SeededMember()}
}
