package dto

import "strings"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"max=100"`
	Team     string `json:"team" validate:"max=100"`
}

func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Team = strings.TrimSpace(r.Team)
	return validateStruct(r)
}

// LoginRequest is not tag-validated: empty fields must fail the same way a
// wrong password does, and that decision belongs to the auth service.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	return validateStruct(r)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=72"`
}

func (r *ResetPasswordRequest) Validate() error {
	return validateStruct(r)
}
