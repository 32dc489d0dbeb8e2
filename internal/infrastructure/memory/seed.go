package memory

import (
	"context"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/nippou-service/internal/domain"
)

// Hasher is the minimal surface we need for seeding.
type Hasher interface {
	Hash(password string) (string, error)
}

// UserCreator is any user store that can insert a record.
type UserCreator interface {
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

// SeedUsers creates verified demo accounts for local development.
// Safe to call multiple times (duplicates ignored).
func SeedUsers(ctx context.Context, users UserCreator, hasher Hasher) int {
	type seedUser struct {
		Email string
		Name  string
		Team  string
		Pass  string
	}

	seeds := []seedUser{
		{Email: "demo@example.com", Name: "Demo User", Team: "dev", Pass: "DemoPassword123!"},
		{Email: "lead@example.com", Name: "Team Lead", Team: "dev", Pass: "LeadPassword123!"},
	}

	created := 0
	for _, s := range seeds {
		hash, err := hasher.Hash(s.Pass)
		if err != nil {
			zlog.Warn().Err(err).Str("email", s.Email).Msg("seed_hash_failed")
			continue
		}

		u := domain.User{
			ID:           uuid.NewString(),
			Email:        s.Email,
			PasswordHash: hash,
			Name:         s.Name,
			Team:         s.Team,
			Verified:     true,
		}

		if _, err := users.Create(ctx, u); err != nil {
			// ignore duplicates / restart
			continue
		}
		created++
	}

	zlog.Info().Int("created", created).Msg("dev users seeded")
	return created
}
