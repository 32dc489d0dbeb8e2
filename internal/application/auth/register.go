package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/nippou-service/internal/domain"
)

const verifySubject = "メール認証"

// Register creates an unverified account and mails the verification link.
func (s *Service) Register(ctx context.Context, email, password, name, team string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", domain.ErrMissingField("email")
	}
	if password == "" {
		return "", domain.ErrMissingField("password")
	}

	// Fast path; the store's unique constraint still settles concurrent races.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", domain.ErrEmailAlreadyExists()
	} else if !domain.Is(err, "user_not_found") {
		return "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}

	token, err := newOpaqueToken(tokenBytes)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	u := domain.User{
		ID:                uuid.NewString(),
		Email:             email,
		PasswordHash:      hash,
		Name:              strings.TrimSpace(name),
		Team:              strings.TrimSpace(team),
		Verified:          false,
		VerificationToken: &token,
	}

	created, err := s.users.Create(ctx, u)
	if err != nil {
		return "", err
	}

	body := "以下のリンクをクリックして認証を完了してください:\n" + s.link(s.verifyURLBase, token)
	if err := s.mailer.Send(ctx, created.Email, verifySubject, body); err != nil {
		// Drop the account so the address can register again.
		if delErr := s.users.Delete(ctx, created.ID); delErr != nil {
			zlog.Warn().Err(delErr).Str("user_id", created.ID).Msg("register_compensation_failed")
		}
		return "", domain.ErrMailUnavailable(err)
	}

	return MsgVerificationSent, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
