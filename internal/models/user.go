package models

// RoleStudent can submit and cancel change requests.
const RoleStudent = "student"

// RoleAdmin can additionally review, publish, and read the audit log.
const RoleAdmin = "admin"

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// RosterEntry is one allow-listed student. Only roster emails may register.
type RosterEntry struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}
