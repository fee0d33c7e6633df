package models

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// Roles recognised by the authorization layer.
const (
	RoleAdmin   = "admin"
	RoleShipper = "shipper"
	RoleDriver  = "driver"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Principal identifies the acting user on every request.
type Principal struct {
	UserID int64
	Role   string
}

// Claims is the JWT payload supplied by the identity provider.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}
