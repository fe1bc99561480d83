package dto

import "time"

// RegisterRequest entrada para registro (auth).
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"omitempty,min=3,max=50,alphanum"`
	Password  string `json:"password" validate:"required,min=8"`
	CompanyID string `json:"company_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"omitempty,max=200"`
	Role      string `json:"role" validate:"omitempty,oneof=admin manager operator"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Username    string     `json:"username,omitempty"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LoginRequest entrada para login; Email acepta también el username.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,min=3"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// TrialSignupRequest alta de una empresa nueva en prueba gratuita con su administrador.
type TrialSignupRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	CompanyName string `json:"company_name" validate:"required,min=2,max=200"`
}

// TrialSignupResponse token del administrador y fin de la prueba.
type TrialSignupResponse struct {
	LoginResponse
	CompanyID   string    `json:"company_id"`
	TrialEndsAt time.Time `json:"trial_ends_at"`
}
