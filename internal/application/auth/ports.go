package auth

import (
	"context"
	"time"

	"github.com/baechuer/nippou-service/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
Lookups return domain.ErrUserNotFound when nothing matches.
Token consumption must clear the token in the same write that matches it.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	// Create returns domain.ErrEmailAlreadyExists on a duplicate email.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Delete(ctx context.Context, id string) error

	ConsumeVerificationToken(ctx context.Context, token string) (domain.User, error)
	SetResetPasswordToken(ctx context.Context, userID, token string) error
	ResetPasswordTokenExists(ctx context.Context, token string) (bool, error)
	ResetPassword(ctx context.Context, token, newHash string) (userID string, err error)
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Issues and verifies session tokens (JWT).
Used by service + auth middleware.
*/
type TokenClaims struct {
	UserID    string
	Name      string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenSigner interface {
	SignSessionToken(claims TokenClaims) (string, error)
	// VerifySessionToken returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	VerifySessionToken(token string) (TokenClaims, error)
}

/*
Mailer
------
Delivers plain-text mail. Implementations: SMTP, log, RabbitMQ handoff.
*/
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
