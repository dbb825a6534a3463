package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/utils"
)

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, input UpdateSettingsInput) (*models.Settings, error)
}

type UpdateSettingsInput struct {
	AcademyName       string `json:"academy_name"`
	Slogan            string `json:"slogan"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	Facebook          string `json:"facebook"`
	Instagram         string `json:"instagram"`
	Twitter           string `json:"twitter"`
	FacebookShareText string `json:"facebook_share_text"`

	// Смена учётных данных администратора, пустые значения игнорируются.
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	authService  AuthService
}

func NewSettingsService(settingsRepo repositories.SettingsRepository, authService AuthService) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		authService:  authService,
	}
}

// Get никогда не возвращает учётные данные. Если настроек ещё нет,
// отдаются пустые.
func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return &models.Settings{}, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, input UpdateSettingsInput) (*models.Settings, error) {
	settings := &models.Settings{
		AcademyName:       utils.SanitizeInput(input.AcademyName),
		Slogan:            utils.SanitizeInput(input.Slogan),
		Phone:             utils.SanitizeInput(input.Phone),
		Email:             strings.TrimSpace(input.Email),
		Address:           utils.SanitizeInput(input.Address),
		Facebook:          strings.TrimSpace(input.Facebook),
		Instagram:         strings.TrimSpace(input.Instagram),
		Twitter:           strings.TrimSpace(input.Twitter),
		FacebookShareText: utils.SanitizeInput(input.FacebookShareText),
	}

	if settings.Email != "" && !utils.IsValidEmail(settings.Email) {
		return nil, fieldError("email", "must be a valid email address")
	}

	if input.AdminPassword != "" || strings.TrimSpace(input.AdminUsername) != "" {
		if err := s.changeCredentials(ctx, input.AdminUsername, input.AdminPassword); err != nil {
			return nil, err
		}
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// changeCredentials требует новый пароль, имя пользователя по умолчанию
// остаётся прежним.
func (s *settingsService) changeCredentials(ctx context.Context, username, password string) error {
	if password == "" {
		return fieldError("admin_password", "must be provided to change admin credentials")
	}
	if strings.TrimSpace(username) == "" {
		current, err := s.settingsRepo.GetCredentials(ctx)
		if err != nil && !errors.Is(err, repositories.ErrSettingsNotFound) {
			return fmt.Errorf("failed to load admin credentials: %w", err)
		}
		if current != nil {
			username = current.Username
		}
	}
	return s.authService.ChangeCredentials(ctx, username, password)
}
