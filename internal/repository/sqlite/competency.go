package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/repository"
)

// compile-time check that *DB implements repository.CompetencyRepository
var _ repository.CompetencyRepository = (*DB)(nil)

// ListCompetencies returns the full skill catalog in id order. No
// filtering or pagination — the catalog is a fixed handful of rows seeded
// by the migration.
func (db *DB) ListCompetencies(ctx context.Context) ([]model.Competency, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, skill, description FROM competencies ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing competencies: %w", err)
	}
	defer rows.Close()

	competencies := make([]model.Competency, 0, 8)
	for rows.Next() {
		var c model.Competency
		if err := rows.Scan(&c.ID, &c.Skill, &c.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning competency row: %w", err)
		}
		competencies = append(competencies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating competencies: %w", err)
	}

	return competencies, nil
}
