// Package memstore - in-memory реализации репозиториев для тестов и локального запуска без БД.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
)

var (
	_ repositories.PlayerRepository       = (*Players)(nil)
	_ repositories.RegistrationRepository = (*Registrations)(nil)
	_ repositories.CoachRepository        = (*Coaches)(nil)
	_ repositories.NewsRepository         = (*News)(nil)
	_ repositories.SettingsRepository     = (*Settings)(nil)
)

// Players хранит игроков под одним мьютексом, поэтому UpdateLedger атомарен
// так же, как транзакция с FOR UPDATE в Postgres.
type Players struct {
	mu      sync.RWMutex
	nextID  int
	players map[int]*models.Player
}

func NewPlayers() *Players {
	return &Players{nextID: 1, players: make(map[int]*models.Player)}
}

func (s *Players) Create(ctx context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	player.ID = s.nextID
	player.CreatedAt = now
	player.UpdatedAt = now
	s.nextID++
	s.players[player.ID] = clonePlayer(player)
	return nil
}

func (s *Players) GetByID(ctx context.Context, id int) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (s *Players) List(ctx context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *clonePlayer(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Players) ListActive(ctx context.Context) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Player, 0, len(s.players))
	for _, p := range s.players {
		if p.IsActive {
			out = append(out, *clonePlayer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Players) Update(ctx context.Context, id int, patch models.PlayerPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Position != nil {
		p.Position = *patch.Position
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Achievements != nil {
		p.Achievements = cloneStrings(*patch.Achievements)
	}
	if patch.Images != nil {
		p.Images = cloneStrings(*patch.Images)
	}
	if patch.Videos != nil {
		p.Videos = cloneStrings(*patch.Videos)
	}
	if patch.IsFeatured != nil {
		p.IsFeatured = *patch.IsFeatured
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.JoinDate != nil {
		p.JoinDate = *patch.JoinDate
	}
	if !patch.IsEmpty() {
		p.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *Players) UpdateLedger(ctx context.Context, id int, fn repositories.LedgerFunc) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}

	// fn работает с копией: при ошибке сохранённый игрок не меняется
	working := clonePlayer(stored)
	if err := fn(working); err != nil {
		return nil, err
	}

	stored.PaymentHistory = clonePlayer(working).PaymentHistory
	stored.Subscription = cloneSubscription(working.Subscription)
	stored.UpdatedAt = time.Now().UTC()
	return clonePlayer(stored), nil
}

func (s *Players) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(s.players, id)
	return nil
}

func (s *Players) Stats(ctx context.Context) (repositories.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats repositories.PlayerStats
	for _, p := range s.players {
		stats.Total++
		if p.IsActive {
			stats.Active++
		}
		if p.IsFeatured {
			stats.Featured++
		}
	}
	return stats, nil
}

// Registrations

type Registrations struct {
	mu     sync.RWMutex
	nextID int
	items  map[int]models.Registration
}

func NewRegistrations() *Registrations {
	return &Registrations{nextID: 1, items: make(map[int]models.Registration)}
}

func (s *Registrations) Create(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	reg.ID = s.nextID
	reg.CreatedAt = now
	reg.UpdatedAt = now
	s.nextID++
	s.items[reg.ID] = *reg
	return nil
}

func (s *Registrations) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	return &reg, nil
}

func (s *Registrations) List(ctx context.Context) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Registration, 0, len(s.items))
	for _, reg := range s.items {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Registrations) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.items[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	reg.UpdatedAt = time.Now().UTC()
	s.items[id] = reg
	return nil
}

func (s *Registrations) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Registrations) CountByStatus(ctx context.Context, status models.RegistrationStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, reg := range s.items {
		if reg.Status == status {
			count++
		}
	}
	return count, nil
}

// Coaches

type Coaches struct {
	mu     sync.RWMutex
	nextID int
	items  map[int]models.Coach
}

func NewCoaches() *Coaches {
	return &Coaches{nextID: 1, items: make(map[int]models.Coach)}
}

func (s *Coaches) Create(ctx context.Context, coach *models.Coach) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxOrder := -1
	for _, c := range s.items {
		if c.OrderIndex > maxOrder {
			maxOrder = c.OrderIndex
		}
	}
	now := time.Now().UTC()
	coach.ID = s.nextID
	coach.OrderIndex = maxOrder + 1
	coach.CreatedAt = now
	coach.UpdatedAt = now
	s.nextID++
	s.items[coach.ID] = cloneCoach(*coach)
	return nil
}

func (s *Coaches) GetByID(ctx context.Context, id int) (*models.Coach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrCoachNotFound
	}
	c = cloneCoach(c)
	return &c, nil
}

func (s *Coaches) List(ctx context.Context) ([]models.Coach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Coach, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, cloneCoach(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Coaches) Update(ctx context.Context, coach *models.Coach) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[coach.ID]
	if !ok {
		return repositories.ErrCoachNotFound
	}
	coach.OrderIndex = existing.OrderIndex
	coach.CreatedAt = existing.CreatedAt
	coach.UpdatedAt = time.Now().UTC()
	s.items[coach.ID] = cloneCoach(*coach)
	return nil
}

func (s *Coaches) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return repositories.ErrCoachNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Coaches) Reorder(ctx context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			return repositories.ErrCoachNotFound
		}
	}
	for i, id := range ids {
		c := s.items[id]
		c.OrderIndex = i
		s.items[id] = c
	}
	return nil
}

func (s *Coaches) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// News

type News struct {
	mu     sync.RWMutex
	nextID int
	items  map[int]models.News
}

func NewNews() *News {
	return &News{nextID: 1, items: make(map[int]models.News)}
}

func (s *News) Create(ctx context.Context, news *models.News) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	news.ID = s.nextID
	news.CreatedAt = now
	news.UpdatedAt = now
	s.nextID++
	s.items[news.ID] = cloneNews(*news)
	return nil
}

func (s *News) GetByID(ctx context.Context, id int) (*models.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNewsNotFound
	}
	n = cloneNews(n)
	return &n, nil
}

func (s *News) List(ctx context.Context, publishedOnly bool) ([]models.News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.News, 0, len(s.items))
	for _, n := range s.items {
		if publishedOnly && !n.IsPublished {
			continue
		}
		out = append(out, cloneNews(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *News) Update(ctx context.Context, news *models.News) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[news.ID]
	if !ok {
		return repositories.ErrNewsNotFound
	}
	news.CreatedAt = existing.CreatedAt
	news.UpdatedAt = time.Now().UTC()
	s.items[news.ID] = cloneNews(*news)
	return nil
}

func (s *News) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return repositories.ErrNewsNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *News) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

// Settings

type Settings struct {
	mu       sync.RWMutex
	settings *models.Settings
	creds    *models.AdminCredentials
}

func NewSettings() *Settings {
	return &Settings{}
}

func (s *Settings) Get(ctx context.Context) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, repositories.ErrSettingsNotFound
	}
	out := *s.settings
	return &out, nil
}

func (s *Settings) Upsert(ctx context.Context, settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings.UpdatedAt = time.Now().UTC()
	stored := *settings
	s.settings = &stored
	return nil
}

func (s *Settings) GetCredentials(ctx context.Context) (*models.AdminCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil || strings.TrimSpace(s.creds.Username) == "" {
		return nil, repositories.ErrSettingsNotFound
	}
	out := *s.creds
	return &out, nil
}

func (s *Settings) UpdateCredentials(ctx context.Context, creds models.AdminCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = &creds
	return nil
}

func clonePlayer(p *models.Player) *models.Player {
	out := *p
	out.Achievements = cloneStrings(p.Achievements)
	out.Images = cloneStrings(p.Images)
	out.Videos = cloneStrings(p.Videos)
	out.Subscription = cloneSubscription(p.Subscription)
	if p.PaymentHistory != nil {
		out.PaymentHistory = make([]models.PaymentRecord, len(p.PaymentHistory))
		for i, rec := range p.PaymentHistory {
			rec.PaymentDate = cloneStringPtr(rec.PaymentDate)
			out.PaymentHistory[i] = rec
		}
	}
	return &out
}

func cloneSubscription(sub models.Subscription) models.Subscription {
	sub.LastPaymentDate = cloneStringPtr(sub.LastPaymentDate)
	return sub
}

func cloneCoach(c models.Coach) models.Coach {
	c.Certifications = cloneStrings(c.Certifications)
	return c
}

func cloneNews(n models.News) models.News {
	n.Images = cloneStrings(n.Images)
	n.Videos = cloneStrings(n.Videos)
	return n
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
