package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/cache"
	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/utils"
)

const (
	minPlayerAge = 1
	maxPlayerAge = 100
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	ListPublicPlayers(ctx context.Context) ([]models.PublicPlayer, error)
	GetPublicPlayer(ctx context.Context, id int) (*models.PublicPlayer, error)
	UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int) error
}

type SubscriptionInput struct {
	Type            string   `json:"type"`
	Amount          *float64 `json:"amount"`
	Status          string   `json:"status"`
	LastPaymentDate *string  `json:"last_payment_date"`
	Notes           string   `json:"notes"`
}

type CreatePlayerInput struct {
	Name         string             `json:"name"`
	Age          int                `json:"age"`
	Position     string             `json:"position"`
	Bio          string             `json:"bio"`
	Achievements []string           `json:"achievements"`
	Images       []string           `json:"images"`
	Videos       []string           `json:"videos"`
	IsFeatured   bool               `json:"is_featured"`
	IsActive     *bool              `json:"is_active"`
	JoinDate     *time.Time         `json:"join_date"`
	Subscription *SubscriptionInput `json:"subscription"`
}

// UpdatePlayerInput - частичное обновление: nil означает "не передано",
// пустой массив очищает список.
type UpdatePlayerInput struct {
	Name         *string    `json:"name"`
	Age          *int       `json:"age"`
	Position     *string    `json:"position"`
	Bio          *string    `json:"bio"`
	Achievements *[]string  `json:"achievements"`
	Images       *[]string  `json:"images"`
	Videos       *[]string  `json:"videos"`
	IsFeatured   *bool      `json:"is_featured"`
	IsActive     *bool      `json:"is_active"`
	JoinDate     *time.Time `json:"join_date"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	cache      cache.PlayerCache
	clock      clock.Clock
	logger     *slog.Logger
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	playerCache cache.PlayerCache,
	clk clock.Clock,
	logger *slog.Logger,
) PlayerService {
	if playerCache == nil {
		playerCache = cache.Noop{}
	}
	return &playerService{
		playerRepo: playerRepo,
		cache:      playerCache,
		clock:      clk,
		logger:     logger,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	v := NewValidationError()
	name := utils.SanitizeInput(input.Name)
	position := utils.SanitizeInput(input.Position)
	v.Check(name != "", "name", "must be provided")
	v.Check(input.Age >= minPlayerAge && input.Age <= maxPlayerAge, "age", fmt.Sprintf("must be between %d and %d", minPlayerAge, maxPlayerAge))
	v.Check(position != "", "position", "must be provided")

	sub := models.DefaultSubscription()
	if input.Subscription != nil {
		merged, err := mergeSubscription(sub, *input.Subscription)
		if err != nil {
			var fields *ValidationError
			if errors.As(err, &fields) {
				for k, msg := range fields.Fields {
					v.Add("subscription."+k, msg)
				}
			} else {
				return nil, err
			}
		}
		sub = merged
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	player := &models.Player{
		Name:           name,
		Age:            input.Age,
		Position:       position,
		Bio:            utils.SanitizeInput(input.Bio),
		Achievements:   utils.SanitizeList(input.Achievements),
		Images:         cleanRefs(input.Images),
		Videos:         cleanRefs(input.Videos),
		IsFeatured:     input.IsFeatured,
		IsActive:       true,
		JoinDate:       s.clock.Now().UTC(),
		Subscription:   sub,
		PaymentHistory: []models.PaymentRecord{},
	}
	if input.IsActive != nil {
		player.IsActive = *input.IsActive
	}
	if input.JoinDate != nil && !input.JoinDate.IsZero() {
		player.JoinDate = input.JoinDate.UTC()
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerInvalidField) {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.invalidatePublic(ctx)
	return player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player by id %d: %w", id, err)
	}
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	if players == nil {
		return []models.Player{}, nil
	}
	return players, nil
}

// ListPublicPlayers отдаёт публичную проекцию, по возможности из кеша.
// Ошибки кеша не мешают ответу. Поколение кеша читается до запроса к базе:
// если игрока изменили, пока список загружался, устаревший список не сохранится.
func (s *playerService) ListPublicPlayers(ctx context.Context) ([]models.PublicPlayer, error) {
	cached, ok, err := s.cache.GetPublicPlayers(ctx)
	if err != nil {
		s.logger.Warn("public players cache read failed", slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	generation, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.logger.Warn("public players cache generation read failed", slog.Any("error", genErr))
	}

	players, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	public := make([]models.PublicPlayer, 0, len(players))
	for i := range players {
		public = append(public, players[i].Public())
	}

	if genErr == nil {
		stored, err := s.cache.SetPublicPlayers(ctx, generation, public)
		if err != nil {
			s.logger.Warn("public players cache write failed", slog.Any("error", err))
		} else if !stored {
			s.logger.Debug("public players list changed while loading, cache write skipped")
		}
	}
	return public, nil
}

func (s *playerService) GetPublicPlayer(ctx context.Context, id int) (*models.PublicPlayer, error) {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	public := player.Public()
	return &public, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error) {
	patch, err := buildPlayerPatch(input)
	if err != nil {
		return nil, err
	}

	if err := s.playerRepo.Update(ctx, id, patch); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		case errors.Is(err, repositories.ErrPlayerInvalidField):
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		default:
			return nil, fmt.Errorf("failed to update player %d: %w", id, err)
		}
	}

	s.invalidatePublic(ctx)
	return s.GetPlayer(ctx, id)
}

func (s *playerService) DeletePlayer(ctx context.Context, id int) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	s.invalidatePublic(ctx)
	return nil
}

func (s *playerService) invalidatePublic(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("public players cache invalidation failed", slog.Any("error", err))
	}
}

func buildPlayerPatch(input UpdatePlayerInput) (models.PlayerPatch, error) {
	v := NewValidationError()
	var patch models.PlayerPatch

	if input.Name != nil {
		name := utils.SanitizeInput(*input.Name)
		v.Check(name != "", "name", "must not be empty")
		patch.Name = &name
	}
	if input.Age != nil {
		v.Check(*input.Age >= minPlayerAge && *input.Age <= maxPlayerAge, "age", fmt.Sprintf("must be between %d and %d", minPlayerAge, maxPlayerAge))
		patch.Age = input.Age
	}
	if input.Position != nil {
		position := utils.SanitizeInput(*input.Position)
		v.Check(position != "", "position", "must not be empty")
		patch.Position = &position
	}
	if input.Bio != nil {
		bio := utils.SanitizeInput(*input.Bio)
		patch.Bio = &bio
	}
	if input.Achievements != nil {
		list := utils.SanitizeList(*input.Achievements)
		patch.Achievements = &list
	}
	if input.Images != nil {
		list := cleanRefs(*input.Images)
		patch.Images = &list
	}
	if input.Videos != nil {
		list := cleanRefs(*input.Videos)
		patch.Videos = &list
	}
	patch.IsFeatured = input.IsFeatured
	patch.IsActive = input.IsActive
	if input.JoinDate != nil {
		jd := input.JoinDate.UTC()
		patch.JoinDate = &jd
	}

	if err := v.OrNil(); err != nil {
		return models.PlayerPatch{}, err
	}
	return patch, nil
}

// mergeSubscription накладывает переданные поля на снимок подписки.
func mergeSubscription(base models.Subscription, in SubscriptionInput) (models.Subscription, error) {
	v := NewValidationError()
	out := base

	if t := strings.TrimSpace(in.Type); t != "" {
		out.Type = utils.SanitizeInput(t)
	}
	if in.Amount != nil {
		v.Check(*in.Amount >= 0, "amount", "must not be negative")
		out.Amount = *in.Amount
	}
	if in.Status != "" {
		status := models.PaymentStatus(in.Status)
		v.Check(status.IsValid(), "status", "must be 'paid' or 'unpaid'")
		out.Status = status
	}
	if in.LastPaymentDate != nil {
		date, err := normalizeDate(in.LastPaymentDate)
		if err != nil {
			v.Add("last_payment_date", "must be YYYY-MM-DD")
		}
		out.LastPaymentDate = date
	}
	if in.Notes != "" {
		out.Notes = utils.SanitizeInput(in.Notes)
	}

	if err := v.OrNil(); err != nil {
		return base, err
	}
	return out, nil
}

// cleanRefs оставляет непустые ссылки на медиа без изменения их содержимого.
func cleanRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
