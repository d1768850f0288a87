package model

import "time"

// Role is fixed at registration and checked per protected operation.
type Role string

const (
	RoleUser      Role = "user"
	RoleHospital  Role = "hospital"
	RoleAmbulance Role = "ambulance"
)

// Valid reports whether r is one of the three registrable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleHospital, RoleAmbulance:
		return true
	}
	return false
}

// User represents a row in the `users` table. The credential string
// (scrypt hash and salt) lives in PasswordHash and never leaves the
// repository and gate layers.
//
// Fields:
//  ID           – primary key.
//  Username     – unique login identifier.
//  Email        – unique contact address.
//  PasswordHash – "hexkey.hexsalt" credential string.
//  Role         – user, hospital or ambulance.
//  City, State  – optional locality used to scope the hospital directory.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FullName     string    `json:"full_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session models an entry in the session store. Its lifetime is fixed at
// creation and never extended.
type Session struct {
	ID        string    `json:"-"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
