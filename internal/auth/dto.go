package auth

import (
	"github.com/worldleaderio/worldleader-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest captures the signup payload.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Username    string  `json:"username" validate:"required,min=3,max=20,username"`
	Password    string  `json:"password" validate:"required,min=8"`
	Continent   string  `json:"continent" validate:"required"`
	CountryCode *string `json:"country_code,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// AuthResponse contains the token pair and user issued by login or signup.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// ForgotPasswordRequest asks for a reset link by email.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token for a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// VerifyResetTokenResponse reports whether a reset token is still redeemable.
type VerifyResetTokenResponse struct {
	Valid bool `json:"valid"`
}
