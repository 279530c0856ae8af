package services

import (
	"context"
	"errors"
	"strings"

	"github.com/slayergates/esports-arena/models"
	"github.com/slayergates/esports-arena/repositories"
)

type SchoolService interface {
	Create(ctx context.Context, input CreateSchoolInput) (*models.School, error)
	GetByID(ctx context.Context, id int) (*models.School, error)
	List(ctx context.Context) ([]models.School, error)
}

type CreateSchoolInput struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type schoolService struct {
	schoolRepo repositories.SchoolRepository
}

func NewSchoolService(schoolRepo repositories.SchoolRepository) SchoolService {
	return &schoolService{schoolRepo: schoolRepo}
}

func (s *schoolService) Create(ctx context.Context, input CreateSchoolInput) (*models.School, error) {
	name := strings.TrimSpace(input.Name)
	city := strings.TrimSpace(input.City)
	if name == "" || city == "" {
		return nil, ErrSchoolFieldsRequired
	}

	school := &models.School{
		Name: name,
		City: city,
	}
	if err := s.schoolRepo.Create(ctx, school); err != nil {
		if errors.Is(err, repositories.ErrSchoolConflict) {
			return nil, ErrSchoolConflict
		}
		return nil, translateTransient(err)
	}
	return school, nil
}

func (s *schoolService) GetByID(ctx context.Context, id int) (*models.School, error) {
	school, err := s.schoolRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSchoolNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, translateTransient(err)
	}
	return school, nil
}

func (s *schoolService) List(ctx context.Context) ([]models.School, error) {
	schools, err := s.schoolRepo.List(ctx)
	if err != nil {
		return nil, translateTransient(err)
	}
	return schools, nil
}
