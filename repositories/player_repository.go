package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/academy-system/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerInvalidField = errors.New("player field violates constraint")
)

// PlayerStats - счётчики игроков для дашборда.
type PlayerStats struct {
	Total    int
	Active   int
	Featured int
}

// LedgerFunc изменяет игрока внутри транзакции записи оплаты.
// Возврат ошибки откатывает транзакцию.
type LedgerFunc func(player *models.Player) error

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
	ListActive(ctx context.Context) ([]models.Player, error)
	Update(ctx context.Context, id int, patch models.PlayerPatch) error
	UpdateLedger(ctx context.Context, id int, fn LedgerFunc) (*models.Player, error)
	Delete(ctx context.Context, id int) error
	Stats(ctx context.Context) (PlayerStats, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `
	id, name, age, position, bio, achievements, images, videos,
	is_featured, is_active, join_date,
	subscription_type, subscription_amount, subscription_status,
	subscription_last_payment, subscription_notes, payment_history,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var (
		p           models.Player
		bio         sql.NullString
		subType     sql.NullString
		subNotes    sql.NullString
		lastPayment sql.NullTime
		history     []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Position,
		&bio,
		pq.Array(&p.Achievements),
		pq.Array(&p.Images),
		pq.Array(&p.Videos),
		&p.IsFeatured,
		&p.IsActive,
		&p.JoinDate,
		&subType,
		&p.Subscription.Amount,
		&p.Subscription.Status,
		&lastPayment,
		&subNotes,
		&history,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Bio = bio.String
	p.Subscription.Type = subType.String
	p.Subscription.Notes = subNotes.String
	p.Subscription.LastPaymentDate = dateString(lastPayment)

	// NULL в payment_history - игрок без помесячной истории
	if history != nil {
		p.PaymentHistory = make([]models.PaymentRecord, 0)
		if err := json.Unmarshal(history, &p.PaymentHistory); err != nil {
			return nil, fmt.Errorf("failed to decode payment history for player %d: %w", p.ID, err)
		}
	}

	return &p, nil
}

func encodeHistory(history []models.PaymentRecord) (interface{}, error) {
	if history == nil {
		return nil, nil
	}
	b, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment history: %w", err)
	}
	return string(b), nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (
			name, age, position, bio, achievements, images, videos,
			is_featured, is_active, join_date,
			subscription_type, subscription_amount, subscription_status,
			subscription_last_payment, subscription_notes, payment_history
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`

	history, err := encodeHistory(player.PaymentHistory)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, query,
		player.Name,
		player.Age,
		player.Position,
		nullString(player.Bio),
		stringList(player.Achievements),
		stringList(player.Images),
		stringList(player.Videos),
		player.IsFeatured,
		player.IsActive,
		player.JoinDate,
		nullString(player.Subscription.Type),
		player.Subscription.Amount,
		player.Subscription.Status,
		player.Subscription.LastPaymentDate,
		nullString(player.Subscription.Notes),
		history,
	).Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		if isPQCode(err, "23514") {
			return ErrPlayerInvalidField
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY is_featured DESC, created_at DESC`
	return r.list(ctx, query)
}

func (r *postgresPlayerRepository) ListActive(ctx context.Context) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE is_active = TRUE ORDER BY name ASC`
	return r.list(ctx, query)
}

func (r *postgresPlayerRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, *player)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

// Update применяет только переданные поля.
func (r *postgresPlayerRepository) Update(ctx context.Context, id int, patch models.PlayerPatch) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if patch.Position != nil {
		add("position", *patch.Position)
	}
	if patch.Bio != nil {
		add("bio", nullString(*patch.Bio))
	}
	if patch.Achievements != nil {
		add("achievements", stringList(*patch.Achievements))
	}
	if patch.Images != nil {
		add("images", stringList(*patch.Images))
	}
	if patch.Videos != nil {
		add("videos", stringList(*patch.Videos))
	}
	if patch.IsFeatured != nil {
		add("is_featured", *patch.IsFeatured)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if patch.JoinDate != nil {
		add("join_date", *patch.JoinDate)
	}

	if len(sets) == 0 {
		// нечего обновлять, но игрок должен существовать
		_, err := r.GetByID(ctx, id)
		return err
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE players SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isPQCode(err, "23514") {
			return ErrPlayerInvalidField
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// UpdateLedger выполняет чтение-изменение-запись истории оплат и снимка подписки
// одной транзакцией.
// Строка игрока блокируется через FOR UPDATE, поэтому конкурентные записи
// для одного игрока выполняются последовательно, а история и снимок подписки
// всегда записываются вместе.
func (r *postgresPlayerRepository) UpdateLedger(ctx context.Context, id int, fn LedgerFunc) (player *models.Player, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			player = nil
			err = fmt.Errorf("failed to commit ledger transaction: %w", commitErr)
		}
	}()

	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 FOR UPDATE`
	player, err = scanPlayer(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if err = fn(player); err != nil {
		return nil, err
	}

	history, err := encodeHistory(player.PaymentHistory)
	if err != nil {
		return nil, err
	}

	update := `
		UPDATE players SET
			payment_history = $1,
			subscription_status = $2,
			subscription_last_payment = $3,
			subscription_type = $4,
			subscription_amount = $5,
			subscription_notes = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`
	err = tx.QueryRowContext(ctx, update,
		history,
		player.Subscription.Status,
		player.Subscription.LastPaymentDate,
		nullString(player.Subscription.Type),
		player.Subscription.Amount,
		nullString(player.Subscription.Notes),
		id,
	).Scan(&player.UpdatedAt)
	if err != nil {
		if isPQCode(err, "23514") {
			return nil, ErrPlayerInvalidField
		}
		return nil, err
	}

	return player, nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM players WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Stats(ctx context.Context) (PlayerStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_featured)
		FROM players`

	var stats PlayerStats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.Active, &stats.Featured)
	return stats, err
}
