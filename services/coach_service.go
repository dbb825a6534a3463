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

type CoachService interface {
	CreateCoach(ctx context.Context, input CoachInput) (*models.Coach, error)
	GetCoach(ctx context.Context, id int) (*models.Coach, error)
	ListCoaches(ctx context.Context) ([]models.Coach, error)
	UpdateCoach(ctx context.Context, id int, input CoachInput) (*models.Coach, error)
	DeleteCoach(ctx context.Context, id int) error
	ReorderCoaches(ctx context.Context, ids []int) error
}

type CoachInput struct {
	Name           string   `json:"name"`
	Title          string   `json:"title"`
	Bio            string   `json:"bio"`
	Image          string   `json:"image"`
	Experience     string   `json:"experience"`
	Certifications []string `json:"certifications"`
	IsHeadCoach    bool     `json:"is_head_coach"`
}

type coachService struct {
	coachRepo repositories.CoachRepository
}

func NewCoachService(coachRepo repositories.CoachRepository) CoachService {
	return &coachService{coachRepo: coachRepo}
}

func (in CoachInput) toModel() (*models.Coach, error) {
	coach := &models.Coach{
		Name:           utils.SanitizeInput(in.Name),
		Title:          utils.SanitizeInput(in.Title),
		Bio:            utils.SanitizeInput(in.Bio),
		Image:          strings.TrimSpace(in.Image),
		Experience:     utils.SanitizeInput(in.Experience),
		Certifications: utils.SanitizeList(in.Certifications),
		IsHeadCoach:    in.IsHeadCoach,
	}

	v := NewValidationError()
	v.Check(coach.Name != "", "name", "must be provided")
	v.Check(coach.Title != "", "title", "must be provided")
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return coach, nil
}

func (s *coachService) CreateCoach(ctx context.Context, input CoachInput) (*models.Coach, error) {
	coach, err := input.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.coachRepo.Create(ctx, coach); err != nil {
		return nil, fmt.Errorf("failed to create coach: %w", err)
	}
	return coach, nil
}

func (s *coachService) GetCoach(ctx context.Context, id int) (*models.Coach, error) {
	coach, err := s.coachRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCoachNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, fmt.Errorf("failed to get coach %d: %w", id, err)
	}
	return coach, nil
}

func (s *coachService) ListCoaches(ctx context.Context) ([]models.Coach, error) {
	coaches, err := s.coachRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coaches: %w", err)
	}
	if coaches == nil {
		return []models.Coach{}, nil
	}
	return coaches, nil
}

func (s *coachService) UpdateCoach(ctx context.Context, id int, input CoachInput) (*models.Coach, error) {
	coach, err := input.toModel()
	if err != nil {
		return nil, err
	}
	coach.ID = id

	if err := s.coachRepo.Update(ctx, coach); err != nil {
		if errors.Is(err, repositories.ErrCoachNotFound) {
			return nil, ErrCoachNotFound
		}
		return nil, fmt.Errorf("failed to update coach %d: %w", id, err)
	}
	return coach, nil
}

func (s *coachService) DeleteCoach(ctx context.Context, id int) error {
	if err := s.coachRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrCoachNotFound) {
			return ErrCoachNotFound
		}
		return fmt.Errorf("failed to delete coach %d: %w", id, err)
	}
	return nil
}

// ReorderCoaches задаёт порядок тренеров по позиции в списке.
func (s *coachService) ReorderCoaches(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return fieldError("coach_ids", "must not be empty")
	}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fieldError("coach_ids", fmt.Sprintf("duplicate coach id %d", id))
		}
		seen[id] = struct{}{}
	}

	if err := s.coachRepo.Reorder(ctx, ids); err != nil {
		if errors.Is(err, repositories.ErrCoachNotFound) {
			return ErrCoachNotFound
		}
		return fmt.Errorf("failed to reorder coaches: %w", err)
	}
	return nil
}
