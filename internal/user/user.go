package user

import "time"

// User is the account record owned by this service. The session layer only
// ever holds its numeric ID; the full record is resolved per request.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}
