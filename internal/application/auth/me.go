package auth

import (
	"context"

	"github.com/baechuer/nippou-service/internal/domain"
)

// CurrentUser resolves a session token to the stored user.
func (s *Service) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrTokenMissing()
	}

	claims, err := s.signer.VerifySessionToken(token)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			return domain.User{}, domain.ErrTokenInvalid()
		}
		return domain.User{}, err
	}
	return u, nil
}
