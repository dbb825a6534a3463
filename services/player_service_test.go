package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/Dosada05/academy-system/cache"
	"github.com/Dosada05/academy-system/clock"
	"github.com/Dosada05/academy-system/models"
	"github.com/Dosada05/academy-system/repositories"
	"github.com/Dosada05/academy-system/repositories/memstore"
	"github.com/Dosada05/academy-system/testutil"
)

type PlayerServiceSuite struct {
	suite.Suite
	ctx     context.Context
	mini    *miniredis.Miniredis
	cache   *cache.RedisCache
	players *memstore.Players
	clock   *clock.FixedClock
	service PlayerService
}

func TestPlayerServiceSuite(t *testing.T) {
	suite.Run(t, new(PlayerServiceSuite))
}

func (s *PlayerServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.mini = miniredis.RunT(s.T())
	s.cache = cache.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), time.Minute)
	s.players = memstore.NewPlayers()
	s.clock = clock.NewFixed(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC))
	s.service = NewPlayerService(s.players, s.cache, s.clock, testutil.NopLogger())
}

func (s *PlayerServiceSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *PlayerServiceSuite) create(name string) *models.Player {
	p, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{Name: name, Age: 10, Position: "مهاجم"})
	s.Require().NoError(err)
	return p
}

func (s *PlayerServiceSuite) TestCreateAppliesDefaults() {
	p, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{
		Name:         "  <b>Ahmad</b> ",
		Age:          10,
		Position:     "مهاجم",
		Achievements: []string{"best scorer", " ", "<script>x</script>"},
		Images:       []string{"https://cdn.example.com/a.jpg", ""},
	})
	s.Require().NoError(err)

	s.Equal("Ahmad", p.Name)
	s.True(p.IsActive)
	s.Equal(s.clock.Now(), p.JoinDate)
	s.Equal(models.DefaultSubscription(), p.Subscription)
	s.NotNil(p.PaymentHistory)
	s.Equal([]string{"best scorer", "x"}, p.Achievements)
	s.Equal([]string{"https://cdn.example.com/a.jpg"}, p.Images)
}

func (s *PlayerServiceSuite) TestCreateWithSubscription() {
	p, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{
		Name: "Omar", Age: 12, Position: "DF",
		Subscription: &SubscriptionInput{Amount: floatPtr(30), Status: "paid", LastPaymentDate: strPtr("2025-03-01T10:00:00Z")},
	})
	s.Require().NoError(err)
	s.Equal(30.0, p.Subscription.Amount)
	s.Equal(models.PaymentPaid, p.Subscription.Status)
	s.Equal("2025-03-01", *p.Subscription.LastPaymentDate)
}

func (s *PlayerServiceSuite) TestCreateValidation() {
	_, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{
		Age:          140,
		Subscription: &SubscriptionInput{Amount: floatPtr(-1)},
	})
	s.Require().ErrorIs(err, ErrValidationFailed)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "name")
	s.Contains(verr.Fields, "age")
	s.Contains(verr.Fields, "position")
	s.Contains(verr.Fields, "subscription.amount")
}

func (s *PlayerServiceSuite) TestPublicListIsCachedAndInvalidated() {
	s.create("Ahmad")

	list, err := s.service.ListPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)

	cached, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Len(cached, 1)

	s.create("Omar")
	_, ok, err = s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.False(ok, "create must invalidate the cached list")

	list, err = s.service.ListPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)
}

// slowListPlayers выполняет afterList после первой выборки списка, до возврата результата.
type slowListPlayers struct {
	repositories.PlayerRepository
	fired     bool
	afterList func()
}

func (r *slowListPlayers) List(ctx context.Context) ([]models.Player, error) {
	players, err := r.PlayerRepository.List(ctx)
	if !r.fired {
		r.fired = true
		r.afterList()
	}
	return players, err
}

func (s *PlayerServiceSuite) TestPublicListLoadedBeforeChangeIsNotCached() {
	s.create("Ahmad")

	repo := &slowListPlayers{
		PlayerRepository: s.players,
		afterList:        func() { s.create("Omar") },
	}
	reader := NewPlayerService(repo, s.cache, s.clock, testutil.NopLogger())

	list, err := reader.ListPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.False(ok, "list read before the create must not be cached")

	list, err = reader.ListPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)

	cached, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Len(cached, 2)
}

func (s *PlayerServiceSuite) TestPublicListSurvivesCacheOutage() {
	s.create("Ahmad")
	s.mini.Close()

	list, err := s.service.ListPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PlayerServiceSuite) TestUpdatePatchesOnlyGivenFields() {
	p := s.create("Ahmad")

	age := 11
	featured := true
	none := []string{}
	updated, err := s.service.UpdatePlayer(s.ctx, p.ID, UpdatePlayerInput{Age: &age, IsFeatured: &featured, Images: &none})
	s.Require().NoError(err)
	s.Equal("Ahmad", updated.Name)
	s.Equal(11, updated.Age)
	s.True(updated.IsFeatured)
	s.Empty(updated.Images)

	empty := " "
	_, err = s.service.UpdatePlayer(s.ctx, p.ID, UpdatePlayerInput{Name: &empty})
	s.ErrorIs(err, ErrValidationFailed)

	_, err = s.service.UpdatePlayer(s.ctx, 999, UpdatePlayerInput{Age: &age})
	s.ErrorIs(err, ErrPlayerNotFound)
}

func (s *PlayerServiceSuite) TestDeleteAndPublicGet() {
	p := s.create("Ahmad")

	public, err := s.service.GetPublicPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Ahmad", public.Name)

	s.Require().NoError(s.service.DeletePlayer(s.ctx, p.ID))
	s.ErrorIs(s.service.DeletePlayer(s.ctx, p.ID), ErrPlayerNotFound)

	_, err = s.service.GetPublicPlayer(s.ctx, p.ID)
	s.ErrorIs(err, ErrPlayerNotFound)
}
