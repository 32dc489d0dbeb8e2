package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/nippou-service/internal/domain"
)

func metaOf(t *testing.T, err error) map[string]string {
	t.Helper()
	de, ok := err.(*domain.Error)
	require.True(t, ok, "expected *domain.Error, got %T", err)
	return de.Meta
}

func TestRegisterRequest_Validate(t *testing.T) {
	t.Run("missing email", func(t *testing.T) {
		r := &RegisterRequest{Password: "pw"}
		err := r.Validate()
		require.True(t, domain.Is(err, "missing_field"), "got %v", err)
		assert.Equal(t, "email", metaOf(t, err)["field"])
	})

	t.Run("missing password", func(t *testing.T) {
		r := &RegisterRequest{Email: "a@b.com"}
		err := r.Validate()
		require.True(t, domain.Is(err, "missing_field"), "got %v", err)
		assert.Equal(t, "password", metaOf(t, err)["field"])
	})

	t.Run("invalid email", func(t *testing.T) {
		r := &RegisterRequest{Email: "not-an-email", Password: "pw"}
		err := r.Validate()
		require.True(t, domain.Is(err, "invalid_field"), "got %v", err)
		meta := metaOf(t, err)
		assert.Equal(t, "email", meta["field"])
		assert.Contains(t, meta["reason"], "valid email")
	})

	t.Run("password over bcrypt limit", func(t *testing.T) {
		r := &RegisterRequest{Email: "a@b.com", Password: strings.Repeat("x", 73)}
		err := r.Validate()
		require.True(t, domain.Is(err, "invalid_field"), "got %v", err)
		assert.Equal(t, "password", metaOf(t, err)["field"])
	})

	t.Run("normalizes and accepts", func(t *testing.T) {
		r := &RegisterRequest{Email: "  Alice@Example.COM ", Password: "pw", Name: " Alice ", Team: " A "}
		require.NoError(t, r.Validate())
		assert.Equal(t, "alice@example.com", r.Email)
		assert.Equal(t, "Alice", r.Name)
		assert.Equal(t, "A", r.Team)
	})
}

func TestForgotPasswordRequest_Validate(t *testing.T) {
	err := (&ForgotPasswordRequest{}).Validate()
	assert.True(t, domain.Is(err, "missing_field"), "got %v", err)

	err = (&ForgotPasswordRequest{Email: "nope"}).Validate()
	assert.True(t, domain.Is(err, "invalid_field"), "got %v", err)

	r := &ForgotPasswordRequest{Email: " Bob@Example.com"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "bob@example.com", r.Email)
}

func TestResetPasswordRequest_Validate(t *testing.T) {
	err := (&ResetPasswordRequest{NewPassword: "x"}).Validate()
	require.True(t, domain.Is(err, "missing_field"), "got %v", err)
	assert.Equal(t, "token", metaOf(t, err)["field"])

	err = (&ResetPasswordRequest{Token: "t"}).Validate()
	require.True(t, domain.Is(err, "missing_field"), "got %v", err)
	assert.Equal(t, "newPassword", metaOf(t, err)["field"])

	assert.NoError(t, (&ResetPasswordRequest{Token: "t", NewPassword: "x"}).Validate())
}

func TestReportRequest_Validate(t *testing.T) {
	err := (&ReportRequest{Date: "2024-05-01"}).Validate()
	require.True(t, domain.Is(err, "missing_field"), "got %v", err)
	assert.Equal(t, "content", metaOf(t, err)["field"])

	assert.NoError(t, (&ReportRequest{Content: "x"}).Validate())
	assert.NoError(t, (&ReportRequest{Date: "2024-05-01", Content: "x"}).Validate())
	assert.NoError(t, (&ReportRequest{Date: "2025/04/25", Content: "x"}).Validate())
}

func TestReportResponse_TagsNeverNull(t *testing.T) {
	b, err := json.Marshal(NewReportResponse(domain.Report{ID: "r1", Content: "c"}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"tags":[]`)

	b, err = json.Marshal(NewReportList(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestReportRequest_ToDomain(t *testing.T) {
	r := ReportRequest{ID: "r1", UserID: "u1", UserName: "Alice", Team: "A", Date: "2024-05-01", Content: "c"}
	got := r.ToDomain()
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "Alice", got.UserName)
	assert.NotNil(t, got.Tags)
}

func TestUserResponse_FieldNames(t *testing.T) {
	b, err := json.Marshal(NewUserResponse(domain.User{ID: "u1", Email: "a@b.com", Name: "A", Team: "T", PasswordHash: "secret"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","name":"A","email":"a@b.com","team":"T"}`, string(b))
}
