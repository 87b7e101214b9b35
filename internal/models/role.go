package models

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type UserRole struct {
	UserID    string    `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	GrantedBy string    `json:"granted_by" db:"granted_by"`
	GrantedAt time.Time `json:"granted_at" db:"granted_at"`
}
