package auth

import (
	"context"

	"github.com/baechuer/nippou-service/internal/domain"
)

// Login authenticates a user and issues a session token.
// Order: existence, then password, then verification. Unknown email and wrong
// password produce the same error so the response cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)

	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return LoginResult{}, domain.ErrInvalidCredentials()
		}
		return LoginResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	if !u.Verified {
		return LoginResult{}, domain.ErrEmailNotVerified()
	}

	now := s.now().UTC()
	claims := TokenClaims{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	tok, err := s.signer.SignSessionToken(claims)
	if err != nil {
		return LoginResult{}, domain.ErrTokenSignFailed(err)
	}

	return LoginResult{User: u, Token: tok, ExpiresAt: claims.ExpiresAt}, nil
}
