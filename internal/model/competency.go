package model

// Competency is one tag from the fixed skill catalog.
//
// The catalog is read-only from the application's perspective: rows are
// seeded by the database migration and there is no write path through the
// API. Integer ids are stable and referenced by entry_competencies rows.
type Competency struct {
	ID          int64  `json:"id"`
	Skill       string `json:"skill"`
	Description string `json:"description"`
}
