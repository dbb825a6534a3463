// Package cache кеширует публичный список игроков, который читает сайт академии.
package cache

import (
	"context"

	"github.com/Dosada05/academy-system/models"
)

// PlayerCache хранит готовую публичную проекцию списка игроков.
// Промах кеша не является ошибкой: Get возвращает ok=false.
//
// Запись условная: Generation читается до загрузки списка из базы, и
// SetPublicPlayers сохраняет список, только если с тех пор не было Invalidate.
type PlayerCache interface {
	GetPublicPlayers(ctx context.Context) (players []models.PublicPlayer, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	SetPublicPlayers(ctx context.Context, generation int64, players []models.PublicPlayer) (stored bool, err error)
	Invalidate(ctx context.Context) error
	Close() error
}

// Noop используется, когда Redis не настроен.
type Noop struct{}

var _ PlayerCache = Noop{}

func (Noop) GetPublicPlayers(ctx context.Context) ([]models.PublicPlayer, bool, error) {
	return nil, false, nil
}

func (Noop) Generation(ctx context.Context) (int64, error) { return 0, nil }

func (Noop) SetPublicPlayers(ctx context.Context, generation int64, players []models.PublicPlayer) (bool, error) {
	return false, nil
}

func (Noop) Invalidate(ctx context.Context) error { return nil }

func (Noop) Close() error { return nil }
