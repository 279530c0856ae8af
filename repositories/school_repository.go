package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/slayergates/esports-arena/models"
)

var (
	ErrSchoolNotFound = errors.New("school not found")
	ErrSchoolConflict = errors.New("school with this name already exists in this city")
)

type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	GetByID(ctx context.Context, id int) (*models.School, error)
	List(ctx context.Context) ([]models.School, error)
}

type postgresSchoolRepository struct {
	db *sql.DB
}

func NewPostgresSchoolRepository(db *sql.DB) SchoolRepository {
	return &postgresSchoolRepository{db: db}
}

func (r *postgresSchoolRepository) Create(ctx context.Context, school *models.School) error {
	query := `
		INSERT INTO schools (name, city)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, school.Name, school.City).
		Scan(&school.ID, &school.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "schools_name_city_key" {
			return ErrSchoolConflict
		}
		return wrapTransient(err)
	}
	return nil
}

func (r *postgresSchoolRepository) GetByID(ctx context.Context, id int) (*models.School, error) {
	query := `SELECT id, name, city, created_at FROM schools WHERE id = $1`

	school := &models.School{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&school.ID,
		&school.Name,
		&school.City,
		&school.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSchoolNotFound
		}
		return nil, wrapTransient(err)
	}
	return school, nil
}

func (r *postgresSchoolRepository) List(ctx context.Context) ([]models.School, error) {
	query := `SELECT id, name, city, created_at FROM schools ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapTransient(err)
	}
	defer rows.Close()

	schools := make([]models.School, 0)
	for rows.Next() {
		var school models.School
		if scanErr := rows.Scan(&school.ID, &school.Name, &school.City, &school.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		schools = append(schools, school)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return schools, nil
}
