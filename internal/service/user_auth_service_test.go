package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/constants"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *repository.GormUserRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate tables failed: %v", err)
	}
	cfg := &config.Config{
		UserJWT: config.JWTConfig{
			SecretKey:   "unit-test-secret-key-0123456789abcdef",
			ExpireHours: 24,
		},
	}
	userRepo := repository.NewUserRepository(db)
	return NewUserAuthService(cfg, userRepo), userRepo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, token, expiresAt, err := svc.Register(RegisterInput{
		Email:     "  Jo@Example.COM ",
		Password:  "s3cure-enough",
		FirstName: " Jo ",
		LastName:  "Martin",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "jo@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.FirstName != "Jo" {
		t.Fatalf("expected trimmed first name, got %q", user.FirstName)
	}
	if user.PasswordHash == "s3cure-enough" {
		t.Fatalf("password must be stored hashed")
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected a token with a future expiry")
	}

	loggedIn, loginToken, _, err := svc.Login("jo@example.com", "s3cure-enough")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID || loginToken == "" {
		t.Fatalf("unexpected login result: %+v", loggedIn)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "s3cure-enough"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got: %v", err)
	}
	if _, _, _, err := svc.Register(RegisterInput{Email: "jo@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register(RegisterInput{Email: "jo@example.com", Password: "s3cure-enough"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	// Case and whitespace differences still hit the same account.
	if _, _, _, err := svc.Register(RegisterInput{Email: " JO@example.com ", Password: "s3cure-enough"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got: %v", err)
	}
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Register(RegisterInput{Email: "jo@example.com", Password: "s3cure-enough"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, _, missingErr := svc.Login("nobody@example.com", "whatever-pass")
	_, _, _, wrongErr := svc.Login("jo@example.com", "wrong-password")
	if !errors.Is(missingErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("missing account and bad password must fail identically, got %v and %v", missingErr, wrongErr)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, userRepo := setupUserAuthServiceTest(t)

	user, _, _, err := svc.Register(RegisterInput{Email: "jo@example.com", Password: "s3cure-enough"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := userRepo.DB().Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable account failed: %v", err)
	}

	if _, _, _, err := svc.Login("jo@example.com", "s3cure-enough"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected user disabled, got: %v", err)
	}
}

func TestUserJWTRoundTrip(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, token, _, err := svc.Register(RegisterInput{Email: "jo@example.com", Password: "s3cure-enough"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != "jo@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseUserJWT(token + "tampered"); err == nil {
		t.Fatalf("tampered token must not parse")
	}
}
