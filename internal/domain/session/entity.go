// internal/domain/session/entity.go
package session

// Role describes what a signed-in user is allowed to reach
type Role string

const (
	RoleShopper Role = "shopper"
	RoleAdmin   Role = "admin"
)

// User is the client's record of the authenticated identity
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session is the client's record of who is signed in. The invariant
// Authenticated == (User != nil) holds for every value produced here;
// construct sessions through Anonymous or ForUser only.
type Session struct {
	Authenticated bool  `json:"is_authenticated"`
	User          *User `json:"user"`
}

// Anonymous returns the logged-out session
func Anonymous() Session {
	return Session{}
}

// ForUser returns an authenticated session for the given identity
func ForUser(u User) Session {
	return Session{Authenticated: true, User: &u}
}

// IsAdmin reports whether the session belongs to an administrator
func (s Session) IsAdmin() bool {
	return s.Authenticated && s.User != nil && s.User.Role == RoleAdmin
}
