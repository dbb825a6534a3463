package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration - одна версия схемы. Версии применяются по возрастанию.
type Migration struct {
	Version string
	Name    string
	Up      string
}

var Migrations = []Migration{
	{
		Version: "20250101000001",
		Name:    "create_players",
		Up: `
CREATE TABLE IF NOT EXISTS players (
    id                        SERIAL PRIMARY KEY,
    name                      TEXT NOT NULL,
    age                       INT NOT NULL CHECK (age BETWEEN 1 AND 100),
    position                  TEXT NOT NULL,
    bio                       TEXT,
    achievements              TEXT[] NOT NULL DEFAULT '{}',
    images                    TEXT[] NOT NULL DEFAULT '{}',
    videos                    TEXT[] NOT NULL DEFAULT '{}',
    is_featured               BOOLEAN NOT NULL DEFAULT FALSE,
    is_active                 BOOLEAN NOT NULL DEFAULT TRUE,
    join_date                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    subscription_type         TEXT,
    subscription_amount       NUMERIC(10, 2) NOT NULL DEFAULT 0,
    subscription_status       TEXT NOT NULL DEFAULT 'unpaid' CHECK (subscription_status IN ('paid', 'unpaid')),
    subscription_last_payment DATE,
    subscription_notes        TEXT,
    payment_history           JSONB,
    created_at                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at                TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_players_listing ON players (is_featured DESC, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_players_active ON players (is_active);
`,
	},
	{
		Version: "20250101000002",
		Name:    "create_registrations",
		Up: `
CREATE TABLE IF NOT EXISTS registrations (
    id           SERIAL PRIMARY KEY,
    child_name   TEXT NOT NULL,
    age          INT NOT NULL,
    parent_name  TEXT NOT NULL,
    phone        TEXT NOT NULL,
    email        TEXT,
    message      TEXT,
    status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		Version: "20250101000003",
		Name:    "create_coaches",
		Up: `
CREATE TABLE IF NOT EXISTS coaches (
    id             SERIAL PRIMARY KEY,
    name           TEXT NOT NULL,
    title          TEXT NOT NULL,
    bio            TEXT,
    image          TEXT,
    experience     TEXT,
    certifications TEXT[] NOT NULL DEFAULT '{}',
    is_head_coach  BOOLEAN NOT NULL DEFAULT FALSE,
    order_index    INT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		Version: "20250101000004",
		Name:    "create_news",
		Up: `
CREATE TABLE IF NOT EXISTS news (
    id           SERIAL PRIMARY KEY,
    title        TEXT NOT NULL,
    content      TEXT NOT NULL,
    image        TEXT,
    images       TEXT[] NOT NULL DEFAULT '{}',
    videos       TEXT[] NOT NULL DEFAULT '{}',
    is_published BOOLEAN NOT NULL DEFAULT TRUE,
    date         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_news_date ON news (date DESC);
`,
	},
	{
		Version: "20250101000005",
		Name:    "create_settings",
		Up: `
CREATE TABLE IF NOT EXISTS settings (
    id                  SERIAL PRIMARY KEY,
    academy_name        TEXT NOT NULL DEFAULT '',
    slogan              TEXT NOT NULL DEFAULT '',
    phone               TEXT NOT NULL DEFAULT '',
    email               TEXT NOT NULL DEFAULT '',
    address             TEXT NOT NULL DEFAULT '',
    facebook            TEXT,
    instagram           TEXT,
    twitter             TEXT,
    facebook_share_text TEXT,
    admin_username      TEXT NOT NULL DEFAULT '',
    admin_password_hash TEXT NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate применяет ещё не применённые миграции, каждую в своей транзакции.
// Возвращает список применённых версий.
func Migrate(ctx context.Context, conn *sql.DB, logger *slog.Logger) ([]string, error) {
	if _, err := conn.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range Migrations {
		if applied[m.Version] {
			continue
		}
		if err := apply(ctx, conn, m); err != nil {
			return done, fmt.Errorf("migration %s (%s) failed: %w", m.Version, m.Name, err)
		}
		logger.Info("migration applied", slog.String("version", m.Version), slog.String("name", m.Name))
		done = append(done, m.Version)
	}
	return done, nil
}

func appliedVersions(ctx context.Context, conn *sql.DB) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, conn *sql.DB, m Migration) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	if _, err = tx.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
	return err
}
