package model

import "time"

// Product is a catalog product as held by the remote API. The client keeps a
// read-through copy per fetch and never mutates it locally.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductDraft is the client-composed payload for create and update calls.
// Validation of drafts is a form-level concern (see the form package); the
// catalog store sends drafts as given.
type ProductDraft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url"`
}

// User is the authenticated account behind a session.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// IsAdmin reports whether the user holds the admin role. Capability hint
// only; enforcement is the server's job.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
