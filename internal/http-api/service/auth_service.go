package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"foodgram/internal/apperr"
	"foodgram/internal/config"
	"foodgram/internal/http-api/models"
	"foodgram/internal/http-api/repository"
	"foodgram/internal/logging"
	"foodgram/internal/metrics"
	"foodgram/internal/middleware/auth"
	"foodgram/internal/shared"
	"foodgram/internal/tokenstore"
	"foodgram/internal/validation"
)

var (
	ErrInvalidCredentials = apperr.Validation("invalid_credentials", "unable to log in with provided credentials")
	ErrInvalidToken       = apperr.Unauthorized("invalid token")
	ErrRevokedToken       = apperr.Unauthorized("token has been revoked")
)

// RegisterInput mirrors validation.RegistrationFields so the two convert directly.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	// CreateAdmin registers an account with the admin role.
	CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
	Logout(ctx context.Context, claims *shared.AuthClaims) error
	ValidateToken(ctx context.Context, tokenString string) (*shared.AuthClaims, error)
	SetPassword(ctx context.Context, viewer shared.Identity, currentPassword, newPassword string) error
}

type authService struct {
	userRepo       repository.UserRepository
	revoked        tokenstore.Store
	jwtSecret      []byte
	accessTokenTTL time.Duration
	now            func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, revoked tokenstore.Store, cfg *config.Config) AuthService {
	return &authService{
		userRepo:       userRepo,
		revoked:        revoked,
		jwtSecret:      []byte(cfg.JWTSecret),
		accessTokenTTL: cfg.AccessTokenTTL,
		now:            time.Now,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleUser)
}

func (s *authService) CreateAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, in, models.RoleAdmin)
}

func (s *authService) register(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if v := validation.Registration(validation.RegistrationFields(in)); !v.OK() {
		return nil, v.Err("invalid_user", "user data is invalid")
	}

	// Check if user exists; the unique indexes still decide under races
	if _, err := s.userRepo.FindByUsername(ctx, in.Username); err == nil {
		return nil, apperr.Conflict("username_taken", "a user with that username already exists")
	}
	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("email_taken", "a user with that email already exists")
	}

	hashedPassword, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:        uuid.New().String(),
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hashedPassword,
		Role:      role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storeError(err, nil)
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Str("role", role).Msg("user registered")
	return user, nil
}

// emails are stored lowercased so the unique index matches lookups
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !repository.IsNotFound(err) {
			return "", nil, err
		}
		// same cost as a wrong password
		auth.BurnCompare(password)
		return "", nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.Password, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, err
	}
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}
	return token, user, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := shared.AuthClaims{
		UserID:   user.ID,
		UserName: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*shared.AuthClaims, error) {
	claims := &shared.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Logout denylists the token's jti until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *shared.AuthClaims) error {
	if claims == nil || claims.ID == "" {
		return errNotAuthenticated
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	err := s.revoked.Revoke(ctx, claims.ID, ttl)
	metrics.TokenRevocationsTotal.WithLabelValues(s.revoked.Backend(), metrics.Outcome(err)).Inc()
	return err
}

func (s *authService) SetPassword(ctx context.Context, viewer shared.Identity, currentPassword, newPassword string) error {
	if err := requireIdentity(viewer); err != nil {
		return err
	}
	if v := validation.PasswordChange(validation.PasswordFields{NewPassword: newPassword}); !v.OK() {
		return v.Err("invalid_password", "new password is invalid")
	}
	user, err := s.userRepo.FindByID(ctx, viewer.UserID)
	if err != nil {
		return storeError(err, userNotFound(viewer.UserID))
	}
	if err := auth.VerifyPassword(user.Password, currentPassword); err != nil {
		return apperr.Validation("wrong_password", "current password is incorrect",
			apperr.Violation{Field: "current_password", Rule: "match", Message: "current password is incorrect"})
	}
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return storeError(s.userRepo.UpdatePassword(ctx, user.ID, hashed), userNotFound(user.ID))
}
