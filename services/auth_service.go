package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/utils"
	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTTL          = 7 * 24 * time.Hour
	minPasswordLength = 6
)

type AuthService interface {
	Login(ctx context.Context, input models.Credentials) (*models.AdminSession, error)
	GenerateToken(username string) (*models.AdminSession, error)
	SeedAdmin(ctx context.Context, username, password string) (bool, error)
	ChangeCredentials(ctx context.Context, username, password string) error
}

type authService struct {
	settingsRepo repositories.SettingsRepository
	jwtSecret    []byte
	clock        clock.Clock
	logger       *slog.Logger
}

func NewAuthService(
	settingsRepo repositories.SettingsRepository,
	jwtSecret string,
	clk clock.Clock,
	logger *slog.Logger,
) AuthService {
	return &authService{
		settingsRepo: settingsRepo,
		jwtSecret:    []byte(jwtSecret),
		clock:        clk,
		logger:       logger,
	}
}

// Login проверяет учётные данные администратора. Пароль, сохранённый
// открытым текстом, принимается один раз и сразу заменяется bcrypt-хешем.
func (s *authService) Login(ctx context.Context, input models.Credentials) (*models.AdminSession, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	creds, err := s.settingsRepo.GetCredentials(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return nil, ErrAdminNotConfigured
		}
		return nil, fmt.Errorf("failed to load admin credentials: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(username), []byte(creds.Username)) != 1 {
		return nil, ErrInvalidCredentials
	}

	if utils.IsBcryptHash(creds.PasswordHash) {
		if !utils.CheckPasswordHash(input.Password, creds.PasswordHash) {
			return nil, ErrInvalidCredentials
		}
	} else {
		if subtle.ConstantTimeCompare([]byte(input.Password), []byte(creds.PasswordHash)) != 1 {
			return nil, ErrInvalidCredentials
		}
		s.upgradeLegacyPassword(ctx, creds.Username, input.Password)
	}

	return s.GenerateToken(creds.Username)
}

func (s *authService) upgradeLegacyPassword(ctx context.Context, username, password string) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash legacy admin password", slog.Any("error", err))
		return
	}
	err = s.settingsRepo.UpdateCredentials(ctx, models.AdminCredentials{Username: username, PasswordHash: hash})
	if err != nil {
		s.logger.Error("failed to upgrade legacy admin password", slog.Any("error", err))
		return
	}
	s.logger.Info("legacy admin password upgraded to bcrypt")
}

func (s *authService) GenerateToken(username string) (*models.AdminSession, error) {
	now := s.clock.Now()
	expires := now.Add(TokenTTL)

	claims := jwt.MapClaims{
		"username": username,
		"role":     string(models.RoleAdmin),
		"exp":      expires.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.AdminSession{
		Username:  username,
		Role:      models.RoleAdmin,
		Token:     signed,
		ExpiresAt: expires,
	}, nil
}

// SeedAdmin создаёт учётную запись администратора, если её ещё нет.
// Возвращает true, если запись была создана.
func (s *authService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.settingsRepo.GetCredentials(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrSettingsNotFound) {
		return false, fmt.Errorf("failed to check admin credentials: %w", err)
	}

	if strings.TrimSpace(username) == "" || password == "" {
		return false, ErrAdminNotConfigured
	}

	if err := s.ChangeCredentials(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}

func (s *authService) ChangeCredentials(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)

	v := NewValidationError()
	v.Check(username != "", "admin_username", "must be provided")
	v.Check(len(password) >= minPasswordLength, "admin_password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	if err := v.OrNil(); err != nil {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	err = s.settingsRepo.UpdateCredentials(ctx, models.AdminCredentials{Username: username, PasswordHash: hash})
	if err != nil {
		return fmt.Errorf("failed to store admin credentials: %w", err)
	}
	return nil
}
