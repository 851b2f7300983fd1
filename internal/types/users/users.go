package users

import (
	"time"

	"github.com/cloudvid/transcriber-service/internal/types"
)

type SignUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Plan     string `json:"plan" validate:"required,oneof=free paid"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Plan      types.Plan `json:"plan"`
	Role      types.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}
