package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/nippou-service/internal/domain"
)

func TestForgotPassword_UnknownAndKnown_SameMessage(t *testing.T) {
	t.Parallel()

	svc, users, _, _, mailer := newSvcForTest(t)
	users.put(verifiedUser("u1", "a@b.com", "pw"))

	msgUnknown, err := svc.ForgotPassword(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, mailer.count())

	msgKnown, err := svc.ForgotPassword(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, msgUnknown, msgKnown)
	assert.Equal(t, MsgPasswordResetSent, msgKnown)
	assert.Equal(t, 1, mailer.count())
}

func TestForgotPassword_UnknownUser_CreatesNothing(t *testing.T) {
	t.Parallel()

	svc, users, _, _, mailer := newSvcForTest(t)

	_, err := svc.ForgotPassword(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Equal(t, 0, users.count())
	assert.Equal(t, 0, mailer.count())
}

func TestForgotPassword_PersistsTokenAndMailsLink(t *testing.T) {
	t.Parallel()

	svc, users, _, _, mailer := newSvcForTest(t)
	users.put(verifiedUser("u1", "a@b.com", "pw"))

	_, err := svc.ForgotPassword(context.Background(), "a@b.com")
	require.NoError(t, err)

	u, _ := users.get("u1")
	require.NotNil(t, u.ResetPasswordToken)

	m, ok := mailer.last()
	require.True(t, ok)
	assert.Equal(t, resetSubject, m.subject)
	assert.Contains(t, m.body, "http://fe/reset-password?token=")
	assert.Equal(t, *u.ResetPasswordToken, tokenFromMail(t, m))
}

func TestForgotPassword_Failures_Propagate(t *testing.T) {
	t.Parallel()

	t.Run("store", func(t *testing.T) {
		svc, users, _, _, _ := newSvcForTest(t)
		users.put(verifiedUser("u1", "a@b.com", "pw"))
		users.setResetErr = domain.ErrDBUnavailable(errors.New("down"))

		_, err := svc.ForgotPassword(context.Background(), "a@b.com")
		requireDomainCode(t, err, "db_unavailable")
	})

	t.Run("mail", func(t *testing.T) {
		svc, users, _, _, mailer := newSvcForTest(t)
		users.put(verifiedUser("u1", "a@b.com", "pw"))
		mailer.sendErr = errors.New("smtp down")

		_, err := svc.ForgotPassword(context.Background(), "a@b.com")
		requireDomainCode(t, err, "mail_unavailable")
	})

	t.Run("empty email", func(t *testing.T) {
		svc, _, _, _, _ := newSvcForTest(t)
		_, err := svc.ForgotPassword(context.Background(), "")
		requireDomainCode(t, err, "missing_field")
	})
}

func TestVerifyResetToken(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newSvcForTest(t)
	tok := "reset-1"
	u := verifiedUser("u1", "a@b.com", "pw")
	u.ResetPasswordToken = &tok
	users.put(u)

	require.NoError(t, svc.VerifyResetToken(context.Background(), tok))
	// probing is non-destructive
	require.NoError(t, svc.VerifyResetToken(context.Background(), tok))

	requireDomainCode(t, svc.VerifyResetToken(context.Background(), "other"), "invalid_token")
	requireDomainCode(t, svc.VerifyResetToken(context.Background(), ""), "invalid_token")
}

func TestResetPassword_SingleUse(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newSvcForTest(t)
	tok := "reset-1"
	u := verifiedUser("u1", "a@b.com", "old")
	u.ResetPasswordToken = &tok
	users.put(u)

	msg, err := svc.ResetPassword(context.Background(), tok, "new-pass")
	require.NoError(t, err)
	assert.Equal(t, MsgPasswordReset, msg)

	got, _ := users.get("u1")
	assert.Equal(t, "hash:new-pass", got.PasswordHash)
	assert.Nil(t, got.ResetPasswordToken)

	_, err = svc.ResetPassword(context.Background(), tok, "again")
	requireDomainCode(t, err, "invalid_token")

	_, err = svc.Login(context.Background(), "a@b.com", "old")
	requireDomainCode(t, err, "invalid_credentials")
	_, err = svc.Login(context.Background(), "a@b.com", "new-pass")
	require.NoError(t, err)
}

func TestResetPassword_Validation(t *testing.T) {
	t.Parallel()

	svc, users, hasher, _, _ := newSvcForTest(t)
	tok := "tok"
	u := verifiedUser("u1", "a@b.com", "old")
	u.ResetPasswordToken = &tok
	users.put(u)

	_, err := svc.ResetPassword(context.Background(), "", "pw")
	requireDomainCode(t, err, "invalid_token")

	_, err = svc.ResetPassword(context.Background(), "tok", "")
	requireDomainCode(t, err, "missing_field")

	hasher.hashFn = func(string) (string, error) { return "", errors.New("boom") }
	_, err = svc.ResetPassword(context.Background(), "tok", "pw")
	requireDomainCode(t, err, "hash_failed")
}

func TestResetPassword_UnknownToken_SkipsHashing(t *testing.T) {
	t.Parallel()

	svc, users, hasher, _, _ := newSvcForTest(t)
	users.put(verifiedUser("u1", "a@b.com", "old"))

	for i := 0; i < 3; i++ {
		_, err := svc.ResetPassword(context.Background(), "guess", "new-pass")
		requireDomainCode(t, err, "invalid_token")
	}
	assert.Equal(t, 0, hasher.hashCalls())

	got, _ := users.get("u1")
	assert.Equal(t, "hash:old", got.PasswordHash)
}

func TestResetPassword_StoreFailure_Propagates(t *testing.T) {
	t.Parallel()

	svc, users, hasher, _, _ := newSvcForTest(t)
	tok := "tok"
	u := verifiedUser("u1", "a@b.com", "old")
	u.ResetPasswordToken = &tok
	users.put(u)

	users.existsErr = domain.ErrDBUnavailable(errors.New("down"))
	_, err := svc.ResetPassword(context.Background(), "tok", "pw")
	requireDomainCode(t, err, "db_unavailable")
	assert.Equal(t, 0, hasher.hashCalls())

	users.existsErr = nil
	users.resetErr = domain.ErrDBUnavailable(errors.New("down"))
	_, err = svc.ResetPassword(context.Background(), "tok", "pw")
	requireDomainCode(t, err, "db_unavailable")
}
