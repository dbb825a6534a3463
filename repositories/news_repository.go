package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/academy-system/models"
	"github.com/lib/pq"
)

var ErrNewsNotFound = errors.New("news not found")

type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id int) (*models.News, error)
	List(ctx context.Context, publishedOnly bool) ([]models.News, error)
	Update(ctx context.Context, news *models.News) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type postgresNewsRepository struct {
	db *sql.DB
}

func NewPostgresNewsRepository(db *sql.DB) NewsRepository {
	return &postgresNewsRepository{db: db}
}

const newsColumns = `id, title, content, image, images, videos, is_published, date, created_at, updated_at`

func scanNews(row rowScanner) (*models.News, error) {
	var (
		n     models.News
		image sql.NullString
	)
	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&image,
		pq.Array(&n.Images),
		pq.Array(&n.Videos),
		&n.IsPublished,
		&n.Date,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Image = image.String
	return &n, nil
}

func (r *postgresNewsRepository) Create(ctx context.Context, news *models.News) error {
	query := `
		INSERT INTO news (title, content, image, images, videos, is_published, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		news.Title,
		news.Content,
		nullString(news.Image),
		stringList(news.Images),
		stringList(news.Videos),
		news.IsPublished,
		news.Date,
	).Scan(&news.ID, &news.CreatedAt, &news.UpdatedAt)
}

func (r *postgresNewsRepository) GetByID(ctx context.Context, id int) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE id = $1`

	news, err := scanNews(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	return news, nil
}

func (r *postgresNewsRepository) List(ctx context.Context, publishedOnly bool) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news`
	if publishedOnly {
		query += ` WHERE is_published = TRUE`
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.News, 0)
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresNewsRepository) Update(ctx context.Context, news *models.News) error {
	query := `
		UPDATE news SET
			title = $1,
			content = $2,
			image = $3,
			images = $4,
			videos = $5,
			is_published = $6,
			date = $7,
			updated_at = NOW()
		WHERE id = $8
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		news.Title,
		news.Content,
		nullString(news.Image),
		stringList(news.Images),
		stringList(news.Videos),
		news.IsPublished,
		news.Date,
		news.ID,
	).Scan(&news.CreatedAt, &news.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNewsNotFound
		}
		return err
	}
	return nil
}

func (r *postgresNewsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&count)
	return count, err
}
