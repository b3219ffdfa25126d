package auth

// GuestID is the sentinel id of unauthenticated and guest users. Guests may
// take the course but are never written to the progress or result stores.
const GuestID int64 = -1

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// IsValid reports whether this user has a stable identity to key storage on.
func (u User) IsValid() bool { return u.ID != GuestID && u.Login != "" }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Guest builds a throwaway student identity. The login must be unique per
// guest (all guests share the sentinel id).
func Guest(login string) User {
	return User{ID: GuestID, Login: login, FullName: "Guest", Role: RoleStudent}
}
