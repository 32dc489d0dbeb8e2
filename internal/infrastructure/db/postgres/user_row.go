package postgres

import (
	"database/sql"
	"time"

	"github.com/baechuer/nippou-service/internal/domain"
)

const userColumns = `id, email, password_hash, name, team, verified, verification_token, reset_password_token, created_at, updated_at`

type userRow struct {
	ID                 string
	Email              string
	PasswordHash       string
	Name               string
	Team               string
	Verified           bool
	VerificationToken  sql.NullString
	ResetPasswordToken sql.NullString
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Email,
		&ur.PasswordHash,
		&ur.Name,
		&ur.Team,
		&ur.Verified,
		&ur.VerificationToken,
		&ur.ResetPasswordToken,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	return domain.User{
		ID:                 ur.ID,
		Email:              ur.Email,
		PasswordHash:       ur.PasswordHash,
		Name:               ur.Name,
		Team:               ur.Team,
		Verified:           ur.Verified,
		VerificationToken:  fromNull(ur.VerificationToken),
		ResetPasswordToken: fromNull(ur.ResetPasswordToken),
		CreatedAt:          ur.CreatedAt,
		UpdatedAt:          ur.UpdatedAt,
	}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
