package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/academy-system/models"
)

var ErrRegistrationNotFound = errors.New("registration not found")

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id int) (*models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	Delete(ctx context.Context, id int) error
	CountByStatus(ctx context.Context, status models.RegistrationStatus) (int, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `id, child_name, age, parent_name, phone, email, message, status, submitted_at, created_at, updated_at`

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		reg     models.Registration
		email   sql.NullString
		message sql.NullString
	)
	err := row.Scan(
		&reg.ID,
		&reg.ChildName,
		&reg.Age,
		&reg.ParentName,
		&reg.Phone,
		&email,
		&message,
		&reg.Status,
		&reg.SubmittedAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Email = email.String
	reg.Message = message.String
	return &reg, nil
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (child_name, age, parent_name, phone, email, message, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		reg.ChildName,
		reg.Age,
		reg.ParentName,
		reg.Phone,
		nullString(reg.Email),
		nullString(reg.Message),
		reg.Status,
		reg.SubmittedAt,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) List(ctx context.Context) ([]models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]models.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM registrations WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) CountByStatus(ctx context.Context, status models.RegistrationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM registrations WHERE status = $1`
	var count int
	err := r.db.QueryRowContext(ctx, query, status).Scan(&count)
	return count, err
}
