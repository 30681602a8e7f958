package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/advista/advista-server-go/internal/config"
	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/model"
	"github.com/advista/advista-server-go/internal/repository"
)

type AuthService struct {
	users       repository.UserRepository
	mailer      *Mailer
	jwtSecret   []byte
	tokenExpiry time.Duration
}

func NewAuthService(users repository.UserRepository, mailer *Mailer, jwtSecret string, tokenExpiry time.Duration) *AuthService {
	return &AuthService{
		users:       users,
		mailer:      mailer,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
	}
}

type SignInResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// generateCode returns a 6-digit numeric verification code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *AuthService) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if len(password) < 8 {
		return nil, apperrors.InvalidInput("password", "must be at least 8 characters")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("User")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, apperrors.Internal("failed to generate verification code").WithCause(err)
	}

	hashedStr := string(hashed)
	expiresAt := time.Now().Add(config.VerifyCodeTTL)
	user, err := s.users.Create(ctx, model.CreateUserParams{
		Email:                 email,
		HashedPassword:        &hashedStr,
		DisplayName:           displayName,
		VerificationCode:      &code,
		VerificationExpiresAt: &expiresAt,
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Database(err)
	}

	// Email delivery must not block signup.
	go func() {
		if err := s.mailer.SendVerificationEmail(user.Email, code); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("verification email failed")
		}
		if err := s.mailer.SendWelcomeEmail(user.Email); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("welcome email failed")
		}
	}()

	log.Info().Str("userId", user.ID).Msg("user created")
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil || user.HashedPassword == nil {
		return nil, apperrors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.HashedPassword), []byte(password)); err != nil {
		return nil, apperrors.InvalidCredentials()
	}

	if !user.IsVerified {
		return nil, apperrors.EmailNotVerified()
	}

	token, err := s.CreateAccessToken(user.Email)
	if err != nil {
		return nil, apperrors.Internal("failed to create access token").WithCause(err)
	}

	return &SignInResult{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil || user.VerificationCode == nil || *user.VerificationCode != code {
		return apperrors.InvalidVerificationCode()
	}
	if user.VerificationExpiresAt == nil || user.VerificationExpiresAt.Before(time.Now()) {
		return apperrors.New(apperrors.ErrCodeCodeExpired, "Verification code has expired")
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return apperrors.Database(err)
	}
	log.Info().Str("userId", user.ID).Msg("email verified")
	return nil
}

// ForgotPassword issues a reset code. A missing account is not reported to
// the caller, so the endpoint cannot be used to enumerate emails.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return apperrors.Internal("failed to generate reset code").WithCause(err)
	}

	if err := s.users.SetResetCode(ctx, user.ID, code, time.Now().Add(config.ResetCodeTTL)); err != nil {
		return apperrors.Database(err)
	}

	go func() {
		if err := s.mailer.SendPasswordResetEmail(user.Email, code); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("password reset email failed")
		}
	}()
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.InvalidInput("password", "must be at least 8 characters")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil || user.ResetCode == nil || *user.ResetCode != code {
		return apperrors.InvalidVerificationCode()
	}
	if user.ResetExpiresAt == nil || user.ResetExpiresAt.Before(time.Now()) {
		return apperrors.New(apperrors.ErrCodeCodeExpired, "Reset code has expired")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to hash password").WithCause(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		return apperrors.Database(err)
	}

	go func() {
		if err := s.mailer.SendPasswordResetSuccessEmail(user.Email); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("password reset success email failed")
		}
	}()

	log.Info().Str("userId", user.ID).Msg("password reset")
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}
	if user.IsVerified {
		return apperrors.New(apperrors.ErrCodeConflict, "Email is already verified")
	}

	code, err := generateCode()
	if err != nil {
		return apperrors.Internal("failed to generate verification code").WithCause(err)
	}

	if err := s.users.SetVerificationCode(ctx, user.ID, code, time.Now().Add(config.VerifyCodeTTL)); err != nil {
		return apperrors.Database(err)
	}

	go func() {
		if err := s.mailer.SendVerificationEmail(user.Email, code); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("verification email failed")
		}
	}()
	return nil
}

func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.NotFound("User")
	}
	return user, nil
}

func (s *AuthService) IsEmailUnique(ctx context.Context, email string) (bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return user == nil, nil
}

func (s *AuthService) CreateAccessToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken validates a JWT and returns the subject email.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", apperrors.InvalidToken("Invalid or expired token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", apperrors.InvalidToken("Invalid token claims")
	}
	return claims.Subject, nil
}
