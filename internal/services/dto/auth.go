package dto

import (
	"time"

	"servimarket_backend/internal/models"
)

// RegisterRequest creates a new client or provider account. Accounts start
// at step=phone, status=pending, inactive.
type RegisterRequest struct {
	Name     string          `json:"nombre" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Phone    string          `json:"telefono" binding:"required"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"tipo" binding:"required,oneof=client provider"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse is the account view returned to the client.
type UserResponse struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"nombre"`
	Email              string                    `json:"email"`
	Phone              string                    `json:"telefono"`
	Role               models.UserRole           `json:"tipo"`
	IsActive           bool                      `json:"is_active"`
	IsAdmin            bool                      `json:"is_admin"`
	VerificationStatus models.VerificationStatus `json:"verification_status"`
	VerificationStep   models.VerificationStep   `json:"verification_step"`
	CreatedAt          time.Time                 `json:"created_at"`
}

type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}
