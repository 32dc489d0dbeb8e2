package dto

import "github.com/baechuer/nippou-service/internal/domain"

type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public profile. It never carries the hash or tokens.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Team  string `json:"team"`
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Team: u.Team}
}

type ValidResponse struct {
	Valid bool `json:"valid"`
}
