package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/nippou-service/internal/domain"
)

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID map[string]domain.User

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	createErr     error
	deleteErr     error
	consumeErr    error
	setResetErr   error
	existsErr     error
	resetErr      error

	// record calls
	deleted []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]domain.User{}}
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) get(id string) (domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	return u, ok
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) ConsumeVerificationToken(ctx context.Context, token string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.consumeErr != nil {
		return domain.User{}, f.consumeErr
	}
	for id, u := range f.byID {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			u.Verified = true
			u.VerificationToken = nil
			f.byID[id] = u
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) SetResetPasswordToken(ctx context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setResetErr != nil {
		return f.setResetErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.ResetPasswordToken = &token
	f.byID[userID] = u
	return nil
}

func (f *fakeUserRepo) ResetPasswordTokenExists(ctx context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.existsErr != nil {
		return false, f.existsErr
	}

	for _, u := range f.byID {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) ResetPassword(ctx context.Context, token, newHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resetErr != nil {
		return "", f.resetErr
	}
	for id, u := range f.byID {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			u.PasswordHash = newHash
			u.ResetPasswordToken = nil
			f.byID[id] = u
			return id, nil
		}
	}
	return "", domain.ErrUserNotFound()
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error

	mu     sync.Mutex
	hashes int
}

func (h *fakeHasher) hashCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *fakeHasher) Hash(password string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

type fakeSigner struct {
	mu     sync.Mutex
	issued map[string]TokenClaims

	signErr   error
	verifyErr error
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{issued: map[string]TokenClaims{}}
}

func (s *fakeSigner) SignSessionToken(c TokenClaims) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signErr != nil {
		return "", s.signErr
	}
	tok := fmt.Sprintf("tok-%d-%s", len(s.issued)+1, c.UserID)
	s.issued[tok] = c
	return tok, nil
}

func (s *fakeSigner) VerifySessionToken(token string) (TokenClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verifyErr != nil {
		return TokenClaims{}, s.verifyErr
	}
	c, ok := s.issued[token]
	if !ok {
		return TokenClaims{}, domain.ErrTokenInvalid()
	}
	return c, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var fixedNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func newSvcForTest(t *testing.T) (*Service, *fakeUserRepo, *fakeHasher, *fakeSigner, *fakeMailer) {
	t.Helper()

	users := newFakeUserRepo()
	hasher := &fakeHasher{}
	signer := newFakeSigner()
	mailer := &fakeMailer{}

	svc := NewService(users, hasher, signer, mailer, Config{
		SessionTTL:    24 * time.Hour,
		VerifyURLBase: "http://api/api/auth/verify?token=",
		ResetURLBase:  "http://fe/reset-password?token=",
	})
	svc.now = func() time.Time { return fixedNow }
	return svc, users, hasher, signer, mailer
}

func verifiedUser(id, email, password string) domain.User {
	return domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash:" + password,
		Name:         "Alice",
		Team:         "dev",
		Verified:     true,
	}
}

func domainCode(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}
