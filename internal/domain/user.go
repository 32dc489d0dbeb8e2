package domain

import "time"

type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	Name               string
	Team               string
	Verified           bool
	VerificationToken  *string
	ResetPasswordToken *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
