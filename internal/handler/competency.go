package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/thought-journal/internal/service"
)

// CompetencyHandler serves the read-only skill catalog.
//
// HTTP: GET /api/competencies → [{id, skill, description}]
// The only authorization is being signed in; there is nothing user-scoped
// to filter.
type CompetencyHandler struct {
	competencies *service.CompetencyService
	logger       *slog.Logger
}

func NewCompetencyHandler(competencies *service.CompetencyService, logger *slog.Logger) *CompetencyHandler {
	return &CompetencyHandler{competencies: competencies, logger: logger}
}

func (h *CompetencyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	competencies, err := h.competencies.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, competencies)
}
