// Package service contains the business logic layer: validation,
// ownership rules and orchestration between handlers and repositories.
// Services accept plain values and return domain errors; they know nothing
// about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/thought-journal/internal/apperror"
	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/repository"
)

// MaxEntryTextLength caps a single thought. Entries are meant to be short
// daily notes, not essays.
const MaxEntryTextLength = 10000

// EntryService handles journal entry business rules.
type EntryService struct {
	entries      repository.EntryRepository
	competencies repository.CompetencyRepository
	logger       *slog.Logger
}

// NewEntryService wires the entry rules to their stores.
func NewEntryService(
	entries repository.EntryRepository,
	competencies repository.CompetencyRepository,
	logger *slog.Logger,
) *EntryService {
	return &EntryService{
		entries:      entries,
		competencies: competencies,
		logger:       logger,
	}
}

// List returns all of userID's entries, newest first.
func (s *EntryService) List(ctx context.Context, userID string) ([]model.Entry, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated("a signed-in user is required")
	}

	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list entries",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// Recent returns userID's newest entries, at most limit of them. Backs the
// "today" widget, which shows the latest five with the composer.
func (s *EntryService) Recent(ctx context.Context, userID string, limit int) ([]model.Entry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Create validates and persists a new entry for userID, returning it with
// the generated id, timestamp and normalised competency set.
func (s *EntryService) Create(ctx context.Context, userID, text string, competencyIDs []int64) (*model.Entry, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated("a signed-in user is required")
	}

	text, err := s.validateText(text)
	if err != nil {
		return nil, err
	}
	ids, err := s.normalizeCompetencyIDs(ctx, competencyIDs)
	if err != nil {
		return nil, err
	}

	entry := &model.Entry{
		UserID: userID,
		Text:   text,
	}
	if err := s.entries.Create(ctx, entry, ids); err != nil {
		s.logger.Error("failed to create entry",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating entry: %w", err)
	}

	s.logger.Info("entry created",
		slog.Int64("id", entry.ID),
		slog.String("userID", userID),
		slog.Int("competencies", len(ids)),
	)
	return entry, nil
}

// Update overwrites the text and replaces the full competency set of the
// entry matching id AND userID. A foreign-owned id comes back as NotFound,
// identical to a missing one.
func (s *EntryService) Update(ctx context.Context, userID string, id int64, text string, competencyIDs []int64) error {
	if userID == "" {
		return apperror.Unauthenticated("a signed-in user is required")
	}

	text, err := s.validateText(text)
	if err != nil {
		return err
	}
	ids, err := s.normalizeCompetencyIDs(ctx, competencyIDs)
	if err != nil {
		return err
	}

	if err := s.entries.Update(ctx, id, userID, text, ids); err != nil {
		return err
	}

	s.logger.Info("entry updated",
		slog.Int64("id", id),
		slog.String("userID", userID),
	)
	return nil
}

// Delete removes the entry matching id AND userID together with its
// association rows.
func (s *EntryService) Delete(ctx context.Context, userID string, id int64) error {
	if userID == "" {
		return apperror.Unauthenticated("a signed-in user is required")
	}

	if err := s.entries.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("entry deleted",
		slog.Int64("id", id),
		slog.String("userID", userID),
	)
	return nil
}

// validateText rejects empty or oversized thoughts. Enforced here, not in
// the browser — the API is callable without the frontend.
func (s *EntryService) validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperror.ValidationFailed("text", "entry text is required")
	}
	if len(trimmed) > MaxEntryTextLength {
		return "", apperror.ValidationFailed("text",
			fmt.Sprintf("entry text must be %d characters or less", MaxEntryTextLength))
	}
	return trimmed, nil
}

// normalizeCompetencyIDs deduplicates and sorts the submitted ids and
// rejects any id not present in the catalog. The returned slice is what
// gets persisted, so the post-condition "stored set equals submitted set"
// holds order-independently.
func (s *EntryService) normalizeCompetencyIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}

	catalog, err := s.competencies.ListCompetencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading competency catalog: %w", err)
	}
	known := make(map[int64]bool, len(catalog))
	for _, c := range catalog {
		known[c.ID] = true
	}

	seen := make(map[int64]bool, len(ids))
	normalized := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !known[id] {
			return nil, apperror.ValidationFailed("competencyIDs",
				fmt.Sprintf("unknown competency id %d", id))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		normalized = append(normalized, id)
	}
	sort.Slice(normalized, func(i, j int) bool { return normalized[i] < normalized[j] })
	return normalized, nil
}
