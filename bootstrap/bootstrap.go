// Package bootstrap выполняет однократную подготовку процесса перед обслуживанием запросов.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/academy-system/config"
)

// MigrateFunc применяет миграции и возвращает применённые версии.
type MigrateFunc func(ctx context.Context) ([]string, error)

type AdminSeeder interface {
	SeedAdmin(ctx context.Context, username, password string) (bool, error)
}

type Startup struct {
	cfg     *config.Config
	migrate MigrateFunc
	seeder  AdminSeeder
	logger  *slog.Logger

	mu   sync.Mutex
	done bool
}

func New(cfg *config.Config, migrate MigrateFunc, seeder AdminSeeder, logger *slog.Logger) *Startup {
	return &Startup{
		cfg:     cfg,
		migrate: migrate,
		seeder:  seeder,
		logger:  logger,
	}
}

// Run проверяет конфигурацию, применяет миграции и засевает учётные данные
// администратора. Повторный вызов после успеха ничего не делает.
// После ошибки Run можно вызвать снова.
func (s *Startup) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return nil
	}

	for _, warning := range s.cfg.Validate() {
		s.logger.Warn("insecure configuration", slog.String("warning", warning))
	}

	if s.migrate != nil {
		applied, err := s.migrate(ctx)
		if err != nil {
			return fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		s.logger.Info("migrations complete", slog.Int("applied", len(applied)))
	}

	if s.cfg.AdminUsername != "" && s.cfg.AdminPassword != "" {
		seeded, err := s.seeder.SeedAdmin(ctx, s.cfg.AdminUsername, s.cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap: failed to seed admin credentials: %w", err)
		}
		if seeded {
			s.logger.Info("admin credentials seeded", slog.String("username", s.cfg.AdminUsername))
		}
	}

	s.done = true
	return nil
}

func (s *Startup) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
