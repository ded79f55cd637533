package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/thought-journal/internal/auth"
	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/service"
)

// todayLimit is how many thoughts the compact widget shows.
const todayLimit = 5

// PageHandler renders the two server-side views:
//
//	GET /         → "today": composer plus the five newest thoughts
//	GET /history  → every thought, with inline edit/delete controls
//
// Both run behind OptionalAuth: anonymous visitors get the signed-out
// shell with a login prompt, signed-in users get their data. Templates are
// parsed once at construction and reused per request.
type PageHandler struct {
	today        *template.Template
	history      *template.Template
	entries      *service.EntryService
	competencies *service.CompetencyService
	logger       *slog.Logger
}

// NewPageHandler parses the templates. base.html defines the page shell
// with a {{template "content" .}} slot; today.html and history.html each
// fill it with their own {{define "content"}} block.
func NewPageHandler(
	templateDir string,
	entries *service.EntryService,
	competencies *service.CompetencyService,
	logger *slog.Logger,
) (*PageHandler, error) {
	today, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "today.html"),
	)
	if err != nil {
		return nil, err
	}
	history, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "history.html"),
	)
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		today:        today,
		history:      history,
		entries:      entries,
		competencies: competencies,
		logger:       logger,
	}, nil
}

// pageData is what both templates receive.
type pageData struct {
	Title        string
	SignedIn     bool
	Thoughts     []model.Thought
	Competencies []model.Competency
}

// HandleToday serves the compact widget: the composer and the caller's
// five most recent thoughts.
func (h *PageHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Today — Thought Journal"}

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		data.SignedIn = true

		entries, err := h.entries.Recent(r.Context(), userID, todayLimit)
		if err != nil {
			h.renderError(w, err)
			return
		}
		data.Thoughts = model.NewThoughts(entries)

		competencies, err := h.competencies.List(r.Context())
		if err != nil {
			h.renderError(w, err)
			return
		}
		data.Competencies = competencies
	}

	h.render(w, h.today, data)
}

// HandleHistory serves the full list.
func (h *PageHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "History — Thought Journal"}

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		data.SignedIn = true

		entries, err := h.entries.List(r.Context(), userID)
		if err != nil {
			h.renderError(w, err)
			return
		}
		data.Thoughts = model.NewThoughts(entries)

		competencies, err := h.competencies.List(r.Context())
		if err != nil {
			h.renderError(w, err)
			return
		}
		data.Competencies = competencies
	}

	h.render(w, h.history, data)
}

func (h *PageHandler) render(w http.ResponseWriter, tmpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *PageHandler) renderError(w http.ResponseWriter, err error) {
	h.logger.Error("failed to load page data", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
