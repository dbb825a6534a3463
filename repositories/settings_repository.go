package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Dosada05/academy-system/models"
)

var ErrSettingsNotFound = errors.New("settings not found")

// SettingsRepository работает с единственной строкой таблицы settings.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Upsert(ctx context.Context, settings *models.Settings) error
	GetCredentials(ctx context.Context) (*models.AdminCredentials, error)
	UpdateCredentials(ctx context.Context, creds models.AdminCredentials) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

func (r *postgresSettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT academy_name, slogan, phone, email, address,
			facebook, instagram, twitter, facebook_share_text, updated_at
		FROM settings
		ORDER BY id ASC
		LIMIT 1`

	var (
		s                                       models.Settings
		facebook, instagram, twitter, shareText sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.AcademyName,
		&s.Slogan,
		&s.Phone,
		&s.Email,
		&s.Address,
		&facebook,
		&instagram,
		&twitter,
		&shareText,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	s.Facebook = facebook.String
	s.Instagram = instagram.String
	s.Twitter = twitter.String
	s.FacebookShareText = shareText.String
	return &s, nil
}

// Upsert обновляет существующую строку или создаёт её, если таблица пуста.
// Учётные данные при этом не затрагиваются.
func (r *postgresSettingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	update := `
		UPDATE settings SET
			academy_name = $1, slogan = $2, phone = $3, email = $4, address = $5,
			facebook = $6, instagram = $7, twitter = $8, facebook_share_text = $9,
			updated_at = NOW()
		WHERE id = (SELECT id FROM settings ORDER BY id ASC LIMIT 1)
		RETURNING updated_at`

	args := []interface{}{
		s.AcademyName,
		s.Slogan,
		s.Phone,
		s.Email,
		s.Address,
		nullString(s.Facebook),
		nullString(s.Instagram),
		nullString(s.Twitter),
		nullString(s.FacebookShareText),
	}

	err := r.db.QueryRowContext(ctx, update, args...).Scan(&s.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	insert := `
		INSERT INTO settings (
			academy_name, slogan, phone, email, address,
			facebook, instagram, twitter, facebook_share_text,
			admin_username, admin_password_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '', '')
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, insert, args...).Scan(&s.UpdatedAt)
}

func (r *postgresSettingsRepository) GetCredentials(ctx context.Context) (*models.AdminCredentials, error) {
	query := `SELECT admin_username, admin_password_hash FROM settings ORDER BY id ASC LIMIT 1`

	var creds models.AdminCredentials
	err := r.db.QueryRowContext(ctx, query).Scan(&creds.Username, &creds.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	// строка настроек может существовать без администратора
	if strings.TrimSpace(creds.Username) == "" {
		return nil, ErrSettingsNotFound
	}
	return &creds, nil
}

func (r *postgresSettingsRepository) UpdateCredentials(ctx context.Context, creds models.AdminCredentials) error {
	update := `
		UPDATE settings SET admin_username = $1, admin_password_hash = $2, updated_at = NOW()
		WHERE id = (SELECT id FROM settings ORDER BY id ASC LIMIT 1)`

	result, err := r.db.ExecContext(ctx, update, creds.Username, creds.PasswordHash)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrSettingsNotFound); err == nil {
		return nil
	} else if !errors.Is(err, ErrSettingsNotFound) {
		return err
	}

	insert := `
		INSERT INTO settings (academy_name, slogan, phone, email, address, admin_username, admin_password_hash)
		VALUES ('', '', '', '', '', $1, $2)`
	_, err = r.db.ExecContext(ctx, insert, creds.Username, creds.PasswordHash)
	return err
}
