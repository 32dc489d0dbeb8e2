package auth

import (
	"context"
	"strings"

	"github.com/baechuer/nippou-service/internal/domain"
)

const resetSubject = "パスワード再設定"

// ForgotPassword mails a reset link to a known address.
// IMPORTANT: non-enumerating - the message is the same whether or not the
// account exists. Store and mail failures still propagate.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", domain.ErrMissingField("email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return MsgPasswordResetSent, nil
		}
		return "", err
	}

	token, err := newOpaqueToken(tokenBytes)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	if err := s.users.SetResetPasswordToken(ctx, u.ID, token); err != nil {
		return "", err
	}

	body := "以下のリンクから新しいパスワードを設定してください:\n" + s.link(s.resetURLBase, token)
	if err := s.mailer.Send(ctx, u.Email, resetSubject, body); err != nil {
		return "", domain.ErrMailUnavailable(err)
	}

	return MsgPasswordResetSent, nil
}

// VerifyResetToken reports whether a reset token is currently valid without
// consuming it.
func (s *Service) VerifyResetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidToken()
	}
	ok, err := s.users.ResetPasswordTokenExists(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidToken()
	}
	return nil
}

// ResetPassword consumes the token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrInvalidToken()
	}
	if newPassword == "" {
		return "", domain.ErrMissingField("newPassword")
	}

	// Unknown tokens are rejected before paying for a hash. The consuming
	// write below still decides single use.
	ok, err := s.users.ResetPasswordTokenExists(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrInvalidToken()
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}

	if _, err := s.users.ResetPassword(ctx, token, hash); err != nil {
		if domain.Is(err, "user_not_found") {
			return "", domain.ErrInvalidToken()
		}
		return "", err
	}
	return MsgPasswordReset, nil
}
