package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubdeck/competition-engine/models"
	"github.com/clubdeck/competition-engine/repositories"
)

type CreateCourtInput struct {
	Name string `json:"name"`
}

// CourtService управляет справочником кортов клуба. Генератор расписания
// использует весь список как пул площадок.
type CourtService interface {
	Create(ctx context.Context, input CreateCourtInput) (*models.Court, error)
	List(ctx context.Context) ([]*models.Court, error)
	Delete(ctx context.Context, courtID int) error
}

type courtService struct {
	courtRepo repositories.CourtRepository
}

func NewCourtService(courtRepo repositories.CourtRepository) CourtService {
	return &courtService{courtRepo: courtRepo}
}

func (s *courtService) Create(ctx context.Context, input CreateCourtInput) (*models.Court, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: court name is required", ErrValidationFailed)
	}
	court := &models.Court{Name: input.Name}
	if err := s.courtRepo.Create(ctx, court); err != nil {
		return nil, err
	}
	return court, nil
}

func (s *courtService) List(ctx context.Context) ([]*models.Court, error) {
	return s.courtRepo.List(ctx, nil)
}

func (s *courtService) Delete(ctx context.Context, courtID int) error {
	if err := s.courtRepo.Delete(ctx, courtID); err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return ErrCourtNotFound
		}
		return err
	}
	return nil
}
