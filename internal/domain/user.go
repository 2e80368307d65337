package domain

import "time"

// User represents a registered voter identified by their CPF.
type User struct {
	ID           int64
	CPF          string
	Name         string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
