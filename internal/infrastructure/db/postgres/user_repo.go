package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/nippou-service/internal/domain"
)

const uniqueViolation = "23505"

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}

func (r *UserRepo) queryOne(ctx context.Context, q string, args ...any) (domain.User, error) {
	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// ---------- auth.UserRepo ----------

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE email = $1
LIMIT 1;
`
	return r.queryOne(ctx, q, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1;
`
	return r.queryOne(ctx, q, id)
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}

	const q = `
INSERT INTO users (id, email, password_hash, name, team, verified, verification_token)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + userColumns + `;
`
	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Team, u.Verified, toNull(u.VerificationToken),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}

// ConsumeVerificationToken verifies and clears the token in one statement, so
// two concurrent requests with the same token cannot both succeed.
func (r *UserRepo) ConsumeVerificationToken(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
UPDATE users
SET verified = TRUE,
    verification_token = NULL,
    updated_at = NOW()
WHERE verification_token = $1
RETURNING ` + userColumns + `;
`
	return r.queryOne(ctx, q, token)
}

func (r *UserRepo) SetResetPasswordToken(ctx context.Context, userID, token string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}

	const q = `
UPDATE users
SET reset_password_token = $2,
    updated_at = NOW()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, userID, token)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *UserRepo) ResetPasswordTokenExists(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE reset_password_token = $1);`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, token).Scan(&ok); err != nil {
		return false, domain.ErrDBUnavailable(err)
	}
	return ok, nil
}

func (r *UserRepo) ResetPassword(ctx context.Context, token, newHash string) (string, error) {
	if token == "" {
		return "", domain.ErrUserNotFound()
	}
	if newHash == "" {
		return "", domain.ErrMissingField("password_hash")
	}

	const q = `
UPDATE users
SET password_hash = $2,
    reset_password_token = NULL,
    updated_at = NOW()
WHERE reset_password_token = $1
RETURNING id;
`
	var id string
	if err := r.db.QueryRowContext(ctx, q, token, newHash).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrUserNotFound()
		}
		return "", domain.ErrDBUnavailable(err)
	}
	return id, nil
}

// Ping backs the readiness probe.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
