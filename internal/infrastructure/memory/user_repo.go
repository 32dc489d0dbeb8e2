package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/nippou-service/internal/domain"
)

type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // email -> userID
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return clone(u), nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u = clone(u)
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return clone(u), nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byID, id)
	}
	return nil
}

func (r *UserRepo) ConsumeVerificationToken(ctx context.Context, token string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}
	for id, u := range r.byID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			u.Verified = true
			u.VerificationToken = nil
			u.UpdatedAt = time.Now().UTC()
			r.byID[id] = u
			return clone(u), nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (r *UserRepo) SetResetPasswordToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.ResetPasswordToken = &token
	u.UpdatedAt = time.Now().UTC()
	r.byID[userID] = u
	return nil
}

func (r *UserRepo) ResetPasswordTokenExists(ctx context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return false, nil
	}
	for _, u := range r.byID {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepo) ResetPassword(ctx context.Context, token, newHash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token == "" {
		return "", domain.ErrUserNotFound()
	}
	for id, u := range r.byID {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			u.PasswordHash = newHash
			u.ResetPasswordToken = nil
			u.UpdatedAt = time.Now().UTC()
			r.byID[id] = u
			return id, nil
		}
	}
	return "", domain.ErrUserNotFound()
}

// clone detaches the token pointers from the stored record.
func clone(u domain.User) domain.User {
	if u.VerificationToken != nil {
		v := *u.VerificationToken
		u.VerificationToken = &v
	}
	if u.ResetPasswordToken != nil {
		v := *u.ResetPasswordToken
		u.ResetPasswordToken = &v
	}
	return u
}
