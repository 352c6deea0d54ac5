package metadata

import "time"

// User is an account that owns files.
//
// PasswordHash is a bcrypt hash and is never serialized to clients; API
// handlers render users through their own response type.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
