package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	playerRepo   repositories.PlayerRepository
	coachRepo    repositories.CoachRepository
	newsRepo     repositories.NewsRepository
	regRepo      repositories.RegistrationRepository
	subscription SubscriptionService
}

func NewDashboardService(
	playerRepo repositories.PlayerRepository,
	coachRepo repositories.CoachRepository,
	newsRepo repositories.NewsRepository,
	regRepo repositories.RegistrationRepository,
	subscription SubscriptionService,
) DashboardService {
	return &dashboardService{
		playerRepo:   playerRepo,
		coachRepo:    coachRepo,
		newsRepo:     newsRepo,
		regRepo:      regRepo,
		subscription: subscription,
	}
}

// GetStats собирает счётчики параллельно; первая ошибка отменяет остальные запросы.
func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ps, err := s.playerRepo.Stats(gctx)
		if err != nil {
			return fmt.Errorf("player stats: %w", err)
		}
		stats.PlayersTotal = ps.Total
		stats.ActivePlayers = ps.Active
		stats.FeaturedPlayers = ps.Featured
		return nil
	})
	g.Go(func() error {
		n, err := s.coachRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("coach count: %w", err)
		}
		stats.CoachesTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.newsRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("news count: %w", err)
		}
		stats.NewsTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.regRepo.CountByStatus(gctx, models.RegistrationPending)
		if err != nil {
			return fmt.Errorf("pending registrations: %w", err)
		}
		stats.PendingRegistrations = n
		return nil
	})
	g.Go(func() error {
		report, err := s.subscription.MonthlyReport(gctx, s.subscription.CurrentMonth())
		if err != nil {
			return err
		}
		stats.CurrentMonth = report
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to collect dashboard stats: %w", err)
	}
	return stats, nil
}
