package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/realtime"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/utils"
)

// Заметка в подписке игрока, созданного из заявки.
const registrationPlayerNote = "تم إنشاؤه من طلب التسجيل"

const notifyTimeout = 30 * time.Second

type RegistrationService interface {
	Submit(ctx context.Context, input SubmitRegistrationInput) (*models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) (*RegistrationDecision, error)
	Delete(ctx context.Context, id int) error
}

type SubmitRegistrationInput struct {
	ChildName  string `json:"child_name"`
	Age        int    `json:"age"`
	ParentName string `json:"parent_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Message    string `json:"message"`
}

// RegistrationDecision - результат смены статуса заявки.
// Player заполнен только когда одобрение создало игрока.
type RegistrationDecision struct {
	Registration *models.Registration `json:"registration"`
	Player       *models.Player       `json:"player,omitempty"`
}

type registrationService struct {
	regRepo       repositories.RegistrationRepository
	playerService PlayerService
	notifier      RegistrationNotifier
	publisher     LedgerPublisher
	clock         clock.Clock
	logger        *slog.Logger
}

func NewRegistrationService(
	regRepo repositories.RegistrationRepository,
	playerService PlayerService,
	notifier RegistrationNotifier,
	publisher LedgerPublisher,
	clk clock.Clock,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		regRepo:       regRepo,
		playerService: playerService,
		notifier:      notifier,
		publisher:     publisher,
		clock:         clk,
		logger:        logger,
	}
}

func (s *registrationService) Submit(ctx context.Context, input SubmitRegistrationInput) (*models.Registration, error) {
	reg := &models.Registration{
		ChildName:   utils.SanitizeInput(input.ChildName),
		Age:         input.Age,
		ParentName:  utils.SanitizeInput(input.ParentName),
		Phone:       utils.SanitizeInput(input.Phone),
		Email:       strings.TrimSpace(input.Email),
		Message:     utils.SanitizeInput(input.Message),
		Status:      models.RegistrationPending,
		SubmittedAt: s.clock.Now().UTC(),
	}

	v := NewValidationError()
	v.Check(reg.ChildName != "", "child_name", "must be provided")
	v.Check(reg.ParentName != "", "parent_name", "must be provided")
	v.Check(reg.Phone != "", "phone", "must be provided")
	v.Check(reg.Age >= minPlayerAge && reg.Age <= maxPlayerAge, "age", fmt.Sprintf("must be between %d and %d", minPlayerAge, maxPlayerAge))
	if reg.Email != "" {
		v.Check(utils.IsValidEmail(reg.Email), "email", "must be a valid email address")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.logger.Info("registration submitted", slog.Int("registration_id", reg.ID))

	if s.notifier != nil && reg.Email != "" {
		go s.notify(*reg)
	}
	return reg, nil
}

// notify отправляет письмо родителю. Ошибка только логируется.
func (s *registrationService) notify(reg models.Registration) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.RegistrationReceived(ctx, reg); err != nil {
		s.logger.Warn("registration email failed",
			slog.Int("registration_id", reg.ID),
			slog.Any("error", err),
		)
	}
}

func (s *registrationService) List(ctx context.Context) ([]models.Registration, error) {
	regs, err := s.regRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	if regs == nil {
		return []models.Registration{}, nil
	}
	return regs, nil
}

// UpdateStatus меняет статус заявки. Одобрение создаёт игрока с подпиской
// по умолчанию; повторное одобрение уже одобренной заявки игрока не создаёт.
// Если создать игрока не удалось, статус заявки возвращается к прежнему.
func (s *registrationService) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) (*RegistrationDecision, error) {
	if !status.IsValid() {
		return nil, fieldError("status", "must be one of pending, approved, rejected")
	}

	reg, err := s.regRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration %d: %w", id, err)
	}

	previous := reg.Status
	if previous == status {
		return &RegistrationDecision{Registration: reg}, nil
	}

	if err := s.regRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to update registration %d status: %w", id, err)
	}
	reg.Status = status

	if status != models.RegistrationApproved {
		return &RegistrationDecision{Registration: reg}, nil
	}

	player, err := s.playerService.CreatePlayer(ctx, CreatePlayerInput{
		Name:     reg.ChildName,
		Age:      reg.Age,
		Position: models.DefaultPosition,
		Subscription: &SubscriptionInput{
			Notes: registrationPlayerNote,
		},
	})
	if err != nil {
		if revertErr := s.regRepo.UpdateStatus(ctx, id, previous); revertErr != nil {
			s.logger.Error("failed to revert registration status",
				slog.Int("registration_id", id),
				slog.String("status", string(previous)),
				slog.Any("error", revertErr),
			)
		}
		return nil, fmt.Errorf("failed to create player from registration %d: %w", id, err)
	}

	s.logger.Info("registration approved",
		slog.Int("registration_id", id),
		slog.Int("player_id", player.ID),
	)

	if s.publisher != nil {
		s.publisher.PublishLedgerEvent(realtime.EventRegistrationApproved, models.LedgerEvent{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			Snapshot:   player.Subscription,
		})
	}

	return &RegistrationDecision{Registration: reg, Player: player}, nil
}

func (s *registrationService) Delete(ctx context.Context, id int) error {
	if err := s.regRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to delete registration %d: %w", id, err)
	}
	return nil
}
