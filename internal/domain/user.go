package domain

import "time"

// User is the identity bound to the device session.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Token    string `json:"-"`
}

// LocalAccount is a row of the offline "users" collection.
type LocalAccount struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}
