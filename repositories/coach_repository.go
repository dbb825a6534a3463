package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/academy-system/models"
	"github.com/lib/pq"
)

var ErrCoachNotFound = errors.New("coach not found")

type CoachRepository interface {
	Create(ctx context.Context, coach *models.Coach) error
	GetByID(ctx context.Context, id int) (*models.Coach, error)
	List(ctx context.Context) ([]models.Coach, error)
	Update(ctx context.Context, coach *models.Coach) error
	Delete(ctx context.Context, id int) error
	Reorder(ctx context.Context, ids []int) error
	Count(ctx context.Context) (int, error)
}

type postgresCoachRepository struct {
	db *sql.DB
}

func NewPostgresCoachRepository(db *sql.DB) CoachRepository {
	return &postgresCoachRepository{db: db}
}

const coachColumns = `id, name, title, bio, image, experience, certifications, is_head_coach, order_index, created_at, updated_at`

func scanCoach(row rowScanner) (*models.Coach, error) {
	var (
		c          models.Coach
		bio        sql.NullString
		image      sql.NullString
		experience sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Title,
		&bio,
		&image,
		&experience,
		pq.Array(&c.Certifications),
		&c.IsHeadCoach,
		&c.OrderIndex,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Bio = bio.String
	c.Image = image.String
	c.Experience = experience.String
	return &c, nil
}

func (r *postgresCoachRepository) Create(ctx context.Context, coach *models.Coach) error {
	// новый тренер попадает в конец списка
	query := `
		INSERT INTO coaches (name, title, bio, image, experience, certifications, is_head_coach, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT COALESCE(MAX(order_index) + 1, 0) FROM coaches))
		RETURNING id, order_index, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		coach.Name,
		coach.Title,
		nullString(coach.Bio),
		nullString(coach.Image),
		nullString(coach.Experience),
		stringList(coach.Certifications),
		coach.IsHeadCoach,
	).Scan(&coach.ID, &coach.OrderIndex, &coach.CreatedAt, &coach.UpdatedAt)
}

func (r *postgresCoachRepository) GetByID(ctx context.Context, id int) (*models.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches WHERE id = $1`

	coach, err := scanCoach(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return coach, nil
}

func (r *postgresCoachRepository) List(ctx context.Context) ([]models.Coach, error) {
	query := `SELECT ` + coachColumns + ` FROM coaches ORDER BY order_index ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coaches := make([]models.Coach, 0)
	for rows.Next() {
		coach, err := scanCoach(rows)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, *coach)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return coaches, nil
}

func (r *postgresCoachRepository) Update(ctx context.Context, coach *models.Coach) error {
	query := `
		UPDATE coaches SET
			name = $1,
			title = $2,
			bio = $3,
			image = $4,
			experience = $5,
			certifications = $6,
			is_head_coach = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING order_index, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		coach.Name,
		coach.Title,
		nullString(coach.Bio),
		nullString(coach.Image),
		nullString(coach.Experience),
		stringList(coach.Certifications),
		coach.IsHeadCoach,
		coach.ID,
	).Scan(&coach.OrderIndex, &coach.CreatedAt, &coach.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCoachNotFound
		}
		return err
	}
	return nil
}

func (r *postgresCoachRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM coaches WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCoachNotFound)
}

// Reorder присваивает order_index по позиции id в списке одной транзакцией.
func (r *postgresCoachRepository) Reorder(ctx context.Context, ids []int) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx)
			return
		}
		err = tx.Commit()
	}()

	query := `UPDATE coaches SET order_index = $1, updated_at = NOW() WHERE id = $2`
	for i, id := range ids {
		result, execErr := tx.ExecContext(ctx, query, i, id)
		if execErr != nil {
			return execErr
		}
		if err = checkAffectedRows(result, ErrCoachNotFound); err != nil {
			return fmt.Errorf("%w (id: %d)", err, id)
		}
	}
	return nil
}

func (r *postgresCoachRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coaches`).Scan(&count)
	return count, err
}
