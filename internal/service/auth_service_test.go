package service

import (
	"errors"
	"testing"
	"time"

	"devday_quiz_backend/internal/config"
	"devday_quiz_backend/internal/model"
	"devday_quiz_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	byEmail map[string]*model.User
	nextID  uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserStore) Create(user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUserStore) FindByEmail(email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdateLastLogin(id uint) error { return nil }

func testAuthConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret-test-secret-test-secret",
			ExpireTime: time.Hour,
		},
	}
}

func seedUser(t *testing.T, store *fakeUserStore, email, password string, disabled bool) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store.Create(&model.User{
		Name:     "Host",
		Email:    email,
		Password: string(hashed),
		Role:     model.Host,
		Disabled: disabled,
	})
}

func TestLoginSuccess(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "host@example.com", "correct-horse", false)
	svc := NewAuthService(store, testAuthConfig())

	token, user, err := svc.Login("host@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || user.Email != "host@example.com" {
		t.Fatalf("unexpected login result: token=%q user=%+v", token, user)
	}

	claims, err := util.ParseJWT(token, testAuthConfig().JWT.Secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != model.Host {
		t.Fatalf("wrong role in claims: %v", claims.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "host@example.com", "correct-horse", false)
	svc := NewAuthService(store, testAuthConfig())

	if _, _, err := svc.Login("host@example.com", "wrong"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected credential error, got %v", err)
	}
	if _, _, err := svc.Login("nobody@example.com", "whatever"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("unknown email must look identical, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "old@example.com", "correct-horse", true)
	svc := NewAuthService(store, testAuthConfig())

	if _, _, err := svc.Login("old@example.com", "correct-horse"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("expected credential error for disabled account, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "host@example.com", "pw", false)
	svc := NewAuthService(store, testAuthConfig())

	if _, err := svc.Register("Again", "host@example.com", "password123", model.Host); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAuthService(store, testAuthConfig())

	user, err := svc.Register("New", "new@example.com", "password123", model.Admin)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Password == "password123" {
		t.Fatal("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}
