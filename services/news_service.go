package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/utils"
)

type NewsService interface {
	CreateNews(ctx context.Context, input NewsInput) (*models.News, error)
	GetNews(ctx context.Context, id int, publishedOnly bool) (*models.News, error)
	ListNews(ctx context.Context, publishedOnly bool) ([]models.News, error)
	UpdateNews(ctx context.Context, id int, input NewsInput) (*models.News, error)
	DeleteNews(ctx context.Context, id int) error
}

type NewsInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Image   string   `json:"image"`
	Images  []string `json:"images"`
	Videos  []string `json:"videos"`
	// nil - опубликовано
	IsPublished *bool      `json:"is_published"`
	Date        *time.Time `json:"date"`
}

type newsService struct {
	newsRepo repositories.NewsRepository
	clock    clock.Clock
}

func NewNewsService(newsRepo repositories.NewsRepository, clk clock.Clock) NewsService {
	return &newsService{newsRepo: newsRepo, clock: clk}
}

func (s *newsService) fromInput(in NewsInput) (*models.News, error) {
	news := &models.News{
		Title:       utils.SanitizeInput(in.Title),
		Content:     utils.SanitizeInput(in.Content),
		Image:       strings.TrimSpace(in.Image),
		Images:      cleanRefs(in.Images),
		Videos:      cleanRefs(in.Videos),
		IsPublished: in.IsPublished == nil || *in.IsPublished,
		Date:        s.clock.Now().UTC(),
	}
	if in.Date != nil && !in.Date.IsZero() {
		news.Date = in.Date.UTC()
	}

	v := NewValidationError()
	v.Check(news.Title != "", "title", "must be provided")
	v.Check(news.Content != "", "content", "must be provided")
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return news, nil
}

func (s *newsService) CreateNews(ctx context.Context, input NewsInput) (*models.News, error) {
	news, err := s.fromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.newsRepo.Create(ctx, news); err != nil {
		return nil, fmt.Errorf("failed to create news: %w", err)
	}
	return news, nil
}

// GetNews скрывает неопубликованные новости от публичных запросов.
func (s *newsService) GetNews(ctx context.Context, id int, publishedOnly bool) (*models.News, error) {
	news, err := s.newsRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to get news %d: %w", id, err)
	}
	if publishedOnly && !news.IsPublished {
		return nil, ErrNewsNotFound
	}
	return news, nil
}

func (s *newsService) ListNews(ctx context.Context, publishedOnly bool) ([]models.News, error) {
	items, err := s.newsRepo.List(ctx, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	if items == nil {
		return []models.News{}, nil
	}
	return items, nil
}

func (s *newsService) UpdateNews(ctx context.Context, id int, input NewsInput) (*models.News, error) {
	existing, err := s.GetNews(ctx, id, false)
	if err != nil {
		return nil, err
	}

	news, err := s.fromInput(input)
	if err != nil {
		return nil, err
	}
	news.ID = id
	if input.Date == nil {
		news.Date = existing.Date
	}

	if err := s.newsRepo.Update(ctx, news); err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, fmt.Errorf("failed to update news %d: %w", id, err)
	}
	return news, nil
}

func (s *newsService) DeleteNews(ctx context.Context, id int) error {
	if err := s.newsRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNewsNotFound) {
			return ErrNewsNotFound
		}
		return fmt.Errorf("failed to delete news %d: %w", id, err)
	}
	return nil
}
