package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/Dosada05/academy-system/models"
)

type RedisCacheSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	cache *RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.cache = NewRedisWithClient(client, time.Minute)
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) TearDownTest() {
	_ = s.cache.Close()
}

func (s *RedisCacheSuite) set(players []models.PublicPlayer) {
	gen, err := s.cache.Generation(s.ctx)
	s.Require().NoError(err)
	stored, err := s.cache.SetPublicPlayers(s.ctx, gen, players)
	s.Require().NoError(err)
	s.Require().True(stored)
}

func (s *RedisCacheSuite) TestMissIsNotAnError() {
	players, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
	s.Nil(players)
}

func (s *RedisCacheSuite) TestSetAndGet() {
	in := []models.PublicPlayer{{ID: 1, Name: "Ahmad", Age: 10, Position: "مهاجم", Achievements: []string{"cup"}}}
	s.set(in)

	out, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Require().Len(out, 1)
	s.Equal("Ahmad", out[0].Name)
	s.Equal([]string{"cup"}, out[0].Achievements)
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	s.set([]models.PublicPlayer{{ID: 1}})

	s.mini.FastForward(2 * time.Minute)

	_, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestInvalidate() {
	s.set([]models.PublicPlayer{{ID: 1}})
	s.Require().NoError(s.cache.Invalidate(s.ctx))

	_, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestNoopNeverHits() {
	var c PlayerCache = Noop{}
	stored, err := c.SetPublicPlayers(s.ctx, 0, []models.PublicPlayer{{ID: 1}})
	s.NoError(err)
	s.False(stored)
	_, ok, err := c.GetPublicPlayers(s.ctx)
	s.NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestInvalidateBumpsGeneration() {
	gen, err := s.cache.Generation(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), gen)

	s.Require().NoError(s.cache.Invalidate(s.ctx))
	s.Require().NoError(s.cache.Invalidate(s.ctx))

	gen, err = s.cache.Generation(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), gen)
}

func (s *RedisCacheSuite) TestStaleGenerationIsNotStored() {
	gen, err := s.cache.Generation(s.ctx)
	s.Require().NoError(err)

	// список прочитан из базы, затем игрок изменился и кеш сброшен
	s.Require().NoError(s.cache.Invalidate(s.ctx))

	stored, err := s.cache.SetPublicPlayers(s.ctx, gen, []models.PublicPlayer{{ID: 1, Name: "stale"}})
	s.Require().NoError(err)
	s.False(stored)

	_, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.False(ok)

	s.set([]models.PublicPlayer{{ID: 1, Name: "fresh"}})
	out, ok, err := s.cache.GetPublicPlayers(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("fresh", out[0].Name)
}
