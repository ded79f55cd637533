package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/repository"
)

// CompetencyService exposes the read-only skill catalog. There is no
// create/update/delete — the catalog is seeded by migration and treated as
// immutable by the application.
type CompetencyService struct {
	repo   repository.CompetencyRepository
	logger *slog.Logger
}

func NewCompetencyService(repo repository.CompetencyRepository, logger *slog.Logger) *CompetencyService {
	return &CompetencyService{repo: repo, logger: logger}
}

// List returns the full catalog in id order.
func (s *CompetencyService) List(ctx context.Context) ([]model.Competency, error) {
	competencies, err := s.repo.ListCompetencies(ctx)
	if err != nil {
		s.logger.Error("failed to list competencies", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing competencies: %w", err)
	}
	return competencies, nil
}
