package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"classquiz-service/internal/domain"
)

// AccountStore covers the profile documents the account flows need.
type AccountStore interface {
	GetUserProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	FindUserByName(ctx context.Context, name string) (domain.UserProfile, error)
	CreateUser(ctx context.Context, profile domain.UserProfile) error
	UpsertUserProfile(ctx context.Context, userID string, patch domain.ProfilePatch) error
}

// AccountService implements registration, login, and token verification.
// The email address doubles as the stable user identifier keying the
// profile document.
type AccountService struct {
	store    AccountStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewAccountService(store AccountStore, secret []byte, tokenTTL time.Duration) *AccountService {
	return &AccountService{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// WithClock injects a deterministic clock for tests.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

// Register creates an account. Display names are unique across all profiles;
// uniqueness is enforced here at registration time, not by the attempt engine.
func (s *AccountService) Register(ctx context.Context, email, password, name string, isTeacher bool) (domain.UserProfile, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidRegistration)
	}
	if name == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: name is required", domain.ErrInvalidRegistration)
	}

	if _, err := s.store.FindUserByName(ctx, name); err == nil {
		return domain.UserProfile{}, domain.ErrNameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.UserProfile{}, err
	}

	if _, err := s.store.GetUserProfile(ctx, email); err == nil {
		return domain.UserProfile{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.UserProfile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserProfile{}, err
	}

	now := s.now()
	profile := domain.UserProfile{
		Email:        email,
		Name:         name,
		IsTeacher:    isTeacher,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastActive:   now,
	}
	if err := s.store.CreateUser(ctx, profile); err != nil {
		return domain.UserProfile{}, err
	}
	profile.PasswordHash = ""
	return profile, nil
}

// Login verifies credentials and returns a signed bearer token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	profile, err := s.store.GetUserProfile(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   profile.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken resolves a bearer token to the stable user identifier. This is
// the identity-provider contract the rest of the service consumes; identity
// is threaded as an explicit userID from here on, never read ambiently.
func (s *AccountService) VerifyToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// Profile returns the user's profile with the password hash stripped.
func (s *AccountService) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	profile, err := s.store.GetUserProfile(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	profile.PasswordHash = ""
	return profile, nil
}
