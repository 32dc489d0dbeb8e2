package auth

import (
	"context"
	"strings"

	"github.com/baechuer/nippou-service/internal/domain"
)

// Verify consumes a verification token and marks its owner verified.
// Unknown, empty and already-used tokens are indistinguishable.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrInvalidToken()
	}

	if _, err := s.users.ConsumeVerificationToken(ctx, token); err != nil {
		if domain.Is(err, "user_not_found") {
			return "", domain.ErrInvalidToken()
		}
		return "", err
	}
	return MsgEmailVerified, nil
}
