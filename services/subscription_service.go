package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/ledger"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/realtime"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/utils"
)

// LedgerPublisher получает события после успешной записи в журнал оплат.
type LedgerPublisher interface {
	PublishLedgerEvent(eventType string, event models.LedgerEvent)
}

type SubscriptionService interface {
	RecordPayment(ctx context.Context, playerID int, month string, input RecordPaymentInput) (*models.Player, error)
	PaymentStatusForMonth(ctx context.Context, playerID int, month string) (models.MonthlyPaymentStatus, error)
	MonthlyReport(ctx context.Context, month string) (models.SubscriptionReport, error)
	ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]models.PlayerSubscription, error)
	UpdateSubscription(ctx context.Context, playerID int, input SubscriptionInput) (*models.Player, error)
	AvailableMonths() []models.MonthOption
	CurrentMonth() string
}

type RecordPaymentInput struct {
	// nil - взять сумму из подписки игрока
	Amount      *float64 `json:"amount"`
	Status      string   `json:"status"`
	PaymentDate *string  `json:"payment_date"`
	Notes       string   `json:"notes"`
}

type SubscriptionFilter struct {
	Month           string
	Status          models.PaymentStatus // пусто - все
	IncludeInactive bool
}

type subscriptionService struct {
	playerRepo repositories.PlayerRepository
	publisher  LedgerPublisher
	clock      clock.Clock
	logger     *slog.Logger
}

func NewSubscriptionService(
	playerRepo repositories.PlayerRepository,
	publisher LedgerPublisher,
	clk clock.Clock,
	logger *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		playerRepo: playerRepo,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
	}
}

func (s *subscriptionService) CurrentMonth() string {
	return ledger.MonthKey(s.clock.Now())
}

func (s *subscriptionService) AvailableMonths() []models.MonthOption {
	return ledger.AvailableMonths(s.clock.Now())
}

// RecordPayment записывает оплату за месяц и синхронизирует снимок подписки
// одной транзакцией. Входные данные проверяются до любой записи.
func (s *subscriptionService) RecordPayment(ctx context.Context, playerID int, month string, input RecordPaymentInput) (*models.Player, error) {
	status := models.PaymentStatus(input.Status)
	if status == "" {
		status = models.PaymentUnpaid
	}

	amount := 0.0
	if input.Amount != nil {
		amount = *input.Amount
	}

	rec, err := ledger.NewRecord(month, ledger.Payment{
		Amount:      amount,
		Status:      status,
		PaymentDate: input.PaymentDate,
		Notes:       utils.SanitizeInput(input.Notes),
	})
	if err != nil {
		return nil, ledgerValidationError(err)
	}

	player, err := s.playerRepo.UpdateLedger(ctx, playerID, func(p *models.Player) error {
		if input.Amount == nil {
			rec.Amount = p.Subscription.Amount
			if rec.Amount <= 0 {
				rec.Amount = models.DefaultSubscriptionAmount
			}
		}
		ledger.UpsertPayment(p, rec)
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to record payment for player %d (month %s): %w", playerID, month, err)
	}

	s.logger.Info("payment recorded",
		slog.Int("player_id", playerID),
		slog.String("month", rec.Month),
		slog.String("status", string(rec.Status)),
		slog.Float64("amount", rec.Amount),
	)

	if s.publisher != nil {
		s.publisher.PublishLedgerEvent(realtime.EventPaymentRecorded, models.LedgerEvent{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			Record:     &rec,
			Snapshot:   player.Subscription,
		})
	}

	return player, nil
}

func (s *subscriptionService) PaymentStatusForMonth(ctx context.Context, playerID int, month string) (models.MonthlyPaymentStatus, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return models.MonthlyPaymentStatus{}, ErrPlayerNotFound
		}
		return models.MonthlyPaymentStatus{}, fmt.Errorf("failed to load player %d: %w", playerID, err)
	}
	return ledger.StatusForMonth(player, s.monthOrCurrent(month)), nil
}

func (s *subscriptionService) MonthlyReport(ctx context.Context, month string) (models.SubscriptionReport, error) {
	players, err := s.playerRepo.ListActive(ctx)
	if err != nil {
		return models.SubscriptionReport{}, fmt.Errorf("failed to load active players: %w", err)
	}
	return ledger.BuildReport(s.monthOrCurrent(month), players), nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]models.PlayerSubscription, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fieldError("status", "must be 'paid' or 'unpaid'")
	}

	var (
		players []models.Player
		err     error
	)
	if filter.IncludeInactive {
		players, err = s.playerRepo.List(ctx)
	} else {
		players, err = s.playerRepo.ListActive(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list players for subscriptions: %w", err)
	}

	month := s.monthOrCurrent(filter.Month)
	out := make([]models.PlayerSubscription, 0, len(players))
	for i := range players {
		p := &players[i]
		status := ledger.StatusForMonth(p, month)
		if filter.Status == models.PaymentPaid && !status.Paid {
			continue
		}
		if filter.Status == models.PaymentUnpaid && status.Paid {
			continue
		}
		out = append(out, models.PlayerSubscription{
			PlayerID:       p.ID,
			PlayerName:     p.Name,
			PlayerAge:      p.Age,
			PlayerPosition: p.Position,
			IsActive:       p.IsActive,
			Subscription:   p.Subscription,
			PaymentHistory: p.PaymentHistory,
			Month:          month,
			MonthStatus:    &status,
		})
	}
	return out, nil
}

// UpdateSubscription меняет только снимок подписки (тип, сумма, статус, заметки),
// история оплат не затрагивается. Слияние идёт внутри UpdateLedger, чтобы
// конкурентная запись оплаты не была затёрта устаревшим снимком.
func (s *subscriptionService) UpdateSubscription(ctx context.Context, playerID int, input SubscriptionInput) (*models.Player, error) {
	player, err := s.playerRepo.UpdateLedger(ctx, playerID, func(p *models.Player) error {
		sub, err := mergeSubscription(p.Subscription, input)
		if err != nil {
			return err
		}
		p.Subscription = sub
		return nil
	})
	if err != nil {
		var validationErr *ValidationError
		switch {
		case errors.As(err, &validationErr):
			return nil, err
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		case errors.Is(err, repositories.ErrPlayerInvalidField):
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		default:
			return nil, fmt.Errorf("failed to update subscription for player %d: %w", playerID, err)
		}
	}

	if s.publisher != nil {
		s.publisher.PublishLedgerEvent(realtime.EventSubscriptionUpdated, models.LedgerEvent{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			Snapshot:   player.Subscription,
		})
	}
	return player, nil
}

func (s *subscriptionService) monthOrCurrent(month string) string {
	if month == "" {
		return s.CurrentMonth()
	}
	return month
}

func ledgerValidationError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrMonthRequired):
		return fieldError("month", "must be provided")
	case errors.Is(err, ledger.ErrInvalidStatus):
		return fieldError("status", "must be 'paid' or 'unpaid'")
	case errors.Is(err, ledger.ErrNegativeAmount):
		return fieldError("amount", "must not be negative")
	case errors.Is(err, ledger.ErrInvalidDate):
		return fieldError("payment_date", "must be YYYY-MM-DD")
	default:
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
}
