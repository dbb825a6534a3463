package models

import "time"

type UserRole string

const RoleAdmin UserRole = "admin"

// AdminSession - выданный администратору токен.
type AdminSession struct {
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
