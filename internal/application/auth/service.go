package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/url"
	"time"

	"github.com/baechuer/nippou-service/internal/domain"
)

const (
	MsgVerificationSent  = "verification email sent"
	MsgEmailVerified     = "email verified; please log in"
	MsgLoggedOut         = "logged out"
	MsgPasswordResetSent = "password reset email sent"
	MsgPasswordReset     = "password has been reset"
)

const tokenBytes = 32

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	signer TokenSigner
	mailer Mailer

	sessionTTL time.Duration

	// Link prefixes; the escaped token is appended.
	verifyURLBase string // e.g. http://localhost:8080/api/auth/verify?token=
	resetURLBase  string // e.g. http://localhost:3000/reset-password?token=

	now func() time.Time
}

type Config struct {
	SessionTTL    time.Duration
	VerifyURLBase string
	ResetURLBase  string
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	signer TokenSigner,
	mailer Mailer,
	cfg Config,
) *Service {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		users:  users,
		hasher: hasher,
		signer: signer,
		mailer: mailer,

		sessionTTL: ttl,

		verifyURLBase: cfg.VerifyURLBase,
		resetURLBase:  cfg.ResetURLBase,

		now: time.Now,
	}
}

// SessionTTL is the lifetime of issued session tokens and their cookie.
func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }

type LoginResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

func (s *Service) link(base, token string) string {
	return base + url.QueryEscape(token)
}

// newOpaqueToken returns a URL-safe opaque token.
func newOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
