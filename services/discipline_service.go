package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/clay-tournament/classification"
	"github.com/Dosada05/clay-tournament/models"
	"github.com/Dosada05/clay-tournament/repositories"
)

type DisciplineService interface {
	CreateDiscipline(ctx context.Context, input CreateDisciplineInput) (*models.Discipline, error)
	GetDisciplineByID(ctx context.Context, id int) (*models.Discipline, error)
	ListDisciplines(ctx context.Context) ([]models.Discipline, error)
}

type CreateDisciplineInput struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	GoverningBody string `json:"governing_body"`
}

type disciplineService struct {
	disciplineRepo repositories.DisciplineRepository
}

func NewDisciplineService(disciplineRepo repositories.DisciplineRepository) DisciplineService {
	return &disciplineService{disciplineRepo: disciplineRepo}
}

func (s *disciplineService) CreateDiscipline(ctx context.Context, input CreateDisciplineInput) (*models.Discipline, error) {
	code := strings.ToLower(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrValidationFailed.Withf("discipline code is required")
	}
	name := normalizeName(input.Name)
	if name == "" {
		return nil, ErrValidationFailed.Withf("discipline name is required")
	}
	scale, ok := classification.Lookup(input.GoverningBody)
	if !ok {
		return nil, ErrUnknownGoverningBody.Withf("%q", input.GoverningBody)
	}

	discipline := &models.Discipline{
		Code:          code,
		Name:          name,
		GoverningBody: scale.Body,
	}
	if err := s.disciplineRepo.Create(ctx, discipline); err != nil {
		if errors.Is(err, repositories.ErrDisciplineCodeConflict) {
			return nil, ErrDisciplineCodeConflict.Withf("%q", code)
		}
		return nil, fmt.Errorf("failed to create discipline: %w", err)
	}
	return discipline, nil
}

func (s *disciplineService) GetDisciplineByID(ctx context.Context, id int) (*models.Discipline, error) {
	discipline, err := s.disciplineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupDiscipline(err, id)
	}
	return discipline, nil
}

func (s *disciplineService) ListDisciplines(ctx context.Context) ([]models.Discipline, error) {
	disciplines, err := s.disciplineRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list disciplines: %w", err)
	}
	if disciplines == nil {
		return []models.Discipline{}, nil
	}
	return disciplines, nil
}
