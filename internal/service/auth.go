package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chubank/internal/cache"
	"chubank/internal/core"
	"chubank/internal/storage"
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 30 * time.Minute
	rateLimitWindow   = 15 * time.Minute
	maxAttemptsPerIP  = 10
	tokenTTL          = 8 * time.Hour
	bcryptCost        = 12
)

// AuthService handles users and token-based login. Lockout state lives on
// the user record; per-IP attempt counters live in the external counter
// store so a horizontally scaled deployment shares them.
type AuthService struct {
	store    storage.UserStore
	counters cache.Cache
	secret   []byte
	issuer   string
	logger   *slog.Logger
}

func NewAuthService(store storage.UserStore, counters cache.Cache, secret, issuer string, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		counters: counters,
		secret:   []byte(secret),
		issuer:   issuer,
		logger:   logger,
	}
}

// CreateUser registers an API user with a bcrypt-hashed password.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password, firstName, lastName string) (*core.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &core.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "username", username)
	return user, nil
}

// Authenticate verifies credentials and returns the user and a signed token.
// Failed attempts count toward a per-user lockout (5 failures lock for 30
// minutes) and a per-IP rate limit (10 attempts per 15 minutes).
func (s *AuthService) Authenticate(ctx context.Context, username, password, ipAddress string) (*core.User, string, error) {
	s.logger.Info("login attempt", "username", username, "ip", ipAddress)

	if s.ipRateLimited(ctx, ipAddress) {
		s.logger.Warn("login blocked, ip rate limited", "ip", ipAddress)
		return nil, "", ErrTooManyAttempts
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.recordFailedAttempt(ctx, ipAddress)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if locked, err := s.checkLockout(ctx, user); err != nil {
		return nil, "", err
	} else if locked {
		s.recordFailedAttempt(ctx, ipAddress)
		s.logger.Warn("login blocked, account locked", "username", username, "ip", ipAddress)
		return nil, "", ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedAttempts {
			until := time.Now().UTC().Add(lockoutDuration)
			user.IsLocked = true
			user.LockedUntil = &until
			s.logger.Warn("account locked after repeated failures", "username", username, "ip", ipAddress)
		}
		user.UpdatedAt = time.Now().UTC()
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, "", err
		}
		s.recordFailedAttempt(ctx, ipAddress)
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.FailedLoginAttempts = 0
	user.IsLocked = false
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("login successful", "username", username, "ip", ipAddress)
	return user, token, nil
}

// VerifyToken parses and validates a token, returning the user id claim.
func (s *AuthService) VerifyToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidCredentials
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidCredentials
	}
	return id, nil
}

// checkLockout reports whether the user is currently locked, auto-unlocking
// expired lockouts.
func (s *AuthService) checkLockout(ctx context.Context, user *core.User) (bool, error) {
	if !user.IsLocked || user.LockedUntil == nil {
		return false, nil
	}
	if user.LockedUntil.After(time.Now().UTC()) {
		return true, nil
	}

	user.IsLocked = false
	user.LockedUntil = nil
	user.FailedLoginAttempts = 0
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("user auto-unlocked after lockout expiry", "username", user.Username)
	return false, nil
}

func ipAttemptsKey(ip string) string {
	return "login_attempts_" + ip
}

func (s *AuthService) ipRateLimited(ctx context.Context, ip string) bool {
	raw, err := s.counters.Get(ctx, ipAttemptsKey(ip))
	if err != nil {
		// Counter store miss or outage: degrade open, the per-user
		// lockout still applies.
		return false
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return count >= maxAttemptsPerIP
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, ip string) {
	if _, err := s.counters.IncrWithExpire(ctx, ipAttemptsKey(ip), rateLimitWindow); err != nil {
		s.logger.Warn("failed to record login attempt", "ip", ip, "err", err)
	}
}

func (s *AuthService) generateToken(user *core.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
		"name":     user.FullName(),
		"iss":      s.issuer,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
