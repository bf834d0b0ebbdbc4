package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/notify"
	"carepath-portal/internal/repository"
	"carepath-portal/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sessionKeyPrefix = "carepath:session:"

// Token lifetimes.
const (
	resetTokenTTL  = 1 * time.Hour
	verifyTokenTTL = 48 * time.Hour
)

// AuthService credentials, sessions, and the token-driven account flows.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, sessionToken string) error
	// CurrentUser resolves a session token to the acting principal.
	CurrentUser(ctx context.Context, sessionToken string) (domain.Actor, error)

	// RequestPasswordReset always behaves like success, even for unknown
	// emails, to avoid account enumeration.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	VerifyEmail(ctx context.Context, rawToken string) error
}

type authService struct {
	usersRepo  repository.UsersRepository
	authRepo   repository.AuthRepository
	sessions   store.KV
	notifier   notify.Notifier
	baseURL    string
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates an AuthService instance.
func NewAuthService(
	usersRepo repository.UsersRepository,
	authRepo repository.AuthRepository,
	sessions store.KV,
	notifier notify.Notifier,
	baseURL string,
	sessionTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		usersRepo:  usersRepo,
		authRepo:   authRepo,
		sessions:   sessions,
		notifier:   notifier,
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// RegisterRequest new staff registration. Accounts start PENDING.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Phone     string
}

// RegisterResponse registration outcome.
type RegisterResponse struct {
	UserID string
}

// LoginRequest credentials login.
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResponse session token plus the acting principal.
type LoginResponse struct {
	SessionToken string
	Actor        domain.Actor
}

// ============================================
// Registration
// ============================================

// Register creates a PENDING user and fires welcome + verification mail.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || len(req.Password) < 8 || req.Role == "" {
		return nil, ErrInvalidInput
	}
	if req.Role == domain.RoleAdmin {
		// Admin accounts are provisioned by the CLI, never self-registered.
		return nil, ErrInvalidInput
	}

	if _, err := s.usersRepo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		Status:       domain.UserStatusPending,
	}
	if req.Phone != "" {
		user.Phone = sql.NullString{String: req.Phone, Valid: true}
	}
	userID, err := s.usersRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.UserID = userID

	s.logger.Info("User registered",
		zap.String("user_id", userID),
		zap.String("role", user.Role),
	)

	// Best-effort mail; the registration commit stands regardless.
	s.notifier.SendWelcome(ctx, user)
	if link, err := s.issueTokenLink(ctx, user, domain.TokenPurposeEmailVerify, verifyTokenTTL, "/verify-email"); err != nil {
		s.logger.Warn("Failed to issue verification token", zap.String("user_id", userID), zap.Error(err))
	} else {
		s.notifier.SendEmailVerification(ctx, user, link)
	}

	return &RegisterResponse{UserID: userID}, nil
}

// ============================================
// Sessions
// ============================================

// Login verifies credentials and opens a session. Only APPROVED users get in.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.usersRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		s.logger.Warn("Login failed: bad password", zap.String("user_id", user.UserID))
		return nil, errors.New("invalid credentials")
	}
	if user.Status != domain.UserStatusApproved {
		return nil, errors.New("account pending approval")
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	actor := domain.Actor{UserID: user.UserID, Role: user.Role, Email: user.Email}
	payload, _ := json.Marshal(actor)
	if err := s.sessions.Set(ctx, sessionKeyPrefix+token, string(payload), s.sessionTTL); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.UserID))
	return &LoginResponse{SessionToken: token, Actor: actor}, nil
}

// Logout drops the session.
func (s *authService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	return s.sessions.Del(ctx, sessionKeyPrefix+sessionToken)
}

// CurrentUser resolves a session token.
func (s *authService) CurrentUser(ctx context.Context, sessionToken string) (domain.Actor, error) {
	if sessionToken == "" {
		return domain.Actor{}, ErrForbidden
	}
	raw, err := s.sessions.Get(ctx, sessionKeyPrefix+sessionToken)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return domain.Actor{}, ErrForbidden
		}
		return domain.Actor{}, err
	}
	var actor domain.Actor
	if err := json.Unmarshal([]byte(raw), &actor); err != nil {
		return domain.Actor{}, ErrForbidden
	}
	return actor, nil
}

// ============================================
// Password reset / email verification
// ============================================

// RequestPasswordReset issues a reset token when the email exists. The
// response is indistinguishable either way.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.usersRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	link, err := s.issueTokenLink(ctx, user, domain.TokenPurposePasswordReset, resetTokenTTL, "/reset-password")
	if err != nil {
		return err
	}
	s.notifier.SendPasswordReset(ctx, user, link)
	return nil
}

// ResetPassword consumes the token and writes the new password hash; the two
// writes commit or revert together.
func (s *authService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < 8 {
		return ErrInvalidInput
	}
	token, err := s.lookupToken(ctx, rawToken, domain.TokenPurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.authRepo.ResetPasswordWithToken(ctx, token.TokenID, token.UserID, hash); err != nil {
		return err
	}
	s.logger.Info("Password reset", zap.String("user_id", token.UserID))
	return nil
}

// VerifyEmail consumes the token and flags the address verified, in one
// transaction.
func (s *authService) VerifyEmail(ctx context.Context, rawToken string) error {
	token, err := s.lookupToken(ctx, rawToken, domain.TokenPurposeEmailVerify)
	if err != nil {
		return err
	}
	if err := s.authRepo.VerifyEmailWithToken(ctx, token.TokenID, token.UserID); err != nil {
		return err
	}
	s.logger.Info("Email verified", zap.String("user_id", token.UserID))
	return nil
}

func (s *authService) lookupToken(ctx context.Context, rawToken, purpose string) (*domain.AuthToken, error) {
	if rawToken == "" {
		return nil, errors.New("invalid or expired token")
	}
	hash := sha256.Sum256([]byte(rawToken))
	token, err := s.authRepo.GetTokenByHash(ctx, hash[:], purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("invalid or expired token")
		}
		return nil, err
	}
	if !token.Usable(s.now()) {
		return nil, errors.New("invalid or expired token")
	}
	return token, nil
}

// issueTokenLink stores a hashed one-shot token and returns the emailable link.
func (s *authService) issueTokenLink(ctx context.Context, user *domain.User, purpose string, ttl time.Duration, path string) (string, error) {
	raw, err := randomToken()
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256([]byte(raw))
	_, err = s.authRepo.CreateToken(ctx, &domain.AuthToken{
		UserID:    user.UserID,
		TokenHash: hash[:],
		Purpose:   purpose,
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s?token=%s", s.baseURL, path, raw), nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
