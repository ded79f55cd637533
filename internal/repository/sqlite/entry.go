package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/thought-journal/internal/apperror"
	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/repository"
)

// compile-time check that *DB implements repository.EntryRepository
var _ repository.EntryRepository = (*DB)(nil)

// Create inserts the entry row and one association row per competency id,
// all inside a single transaction. A failed association insert rolls back
// the parent row too, so the store never holds a partially tagged entry.
func (db *DB) Create(ctx context.Context, entry *model.Entry, competencyIDs []int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// No-op after a successful Commit.
	defer tx.Rollback()

	entry.CreatedAt = time.Now()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (user_id, text, created_at) VALUES (?, ?, ?)`,
		entry.UserID,
		entry.Text,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading entry id: %w", err)
	}
	entry.ID = id

	if err := insertAssociations(ctx, tx, id, competencyIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing entry %d: %w", id, err)
	}

	entry.Competencies = append([]int64{}, competencyIDs...)
	return nil
}

// ListByUser returns the caller's entries newest first, each carrying its
// competency id list. A LEFT JOIN keeps untagged entries in the result;
// the NULL competency ids it produces for them are filtered here and never
// surface to callers.
func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.Entry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT e.id, e.text, e.created_at, ec.competency_id
		 FROM entries e
		 LEFT JOIN entry_competencies ec ON ec.entry_id = e.id
		 WHERE e.user_id = ?
		 ORDER BY e.created_at DESC, e.id DESC, ec.competency_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.Entry, 0, 16)
	for rows.Next() {
		var (
			id           int64
			text         string
			createdAt    time.Time
			competencyID sql.NullInt64
		)
		if err := rows.Scan(&id, &text, &createdAt, &competencyID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning entry row: %w", err)
		}

		// The join yields one row per (entry, tag) pair, ordered by entry;
		// consecutive rows with the same id fold into one Entry.
		if len(entries) == 0 || entries[len(entries)-1].ID != id {
			entries = append(entries, model.Entry{
				ID:           id,
				Text:         text,
				CreatedAt:    createdAt,
				Competencies: []int64{},
				UserID:       userID,
			})
		}
		if competencyID.Valid {
			last := &entries[len(entries)-1]
			last.Competencies = append(last.Competencies, competencyID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating entries: %w", err)
	}

	return entries, nil
}

// Update overwrites the text of the entry matching id AND userID, then
// replaces its association set wholesale: delete all existing rows, insert
// the new set, regardless of whether anything actually changed. Zero
// affected rows on the text update means "not found" — deliberately the
// same answer whether the id is absent or owned by someone else.
//
// There is no version or timestamp compare: two concurrent updates race at
// the row level and the last write wins.
func (db *DB) Update(ctx context.Context, id int64, userID, text string, competencyIDs []int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE entries SET text = ? WHERE id = ? AND user_id = ?`,
		text, id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating entry %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("entry", id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entry_competencies WHERE entry_id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlite: clearing associations for entry %d: %w", id, err)
	}

	if err := insertAssociations(ctx, tx, id, competencyIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing update of entry %d: %w", id, err)
	}
	return nil
}

// Delete removes the association rows and then the entry row matching
// id AND userID, in one transaction. If the entry delete matches nothing
// the whole transaction rolls back (including the association delete) and
// the caller gets NotFound.
func (db *DB) Delete(ctx context.Context, id int64, userID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entry_competencies WHERE entry_id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlite: deleting associations for entry %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting entry %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("entry", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of entry %d: %w", id, err)
	}
	return nil
}

// insertAssociations adds one entry_competencies row per id within the
// caller's transaction. Callers pass deduplicated ids (the service
// normalises input), which keeps the composite primary key happy.
func insertAssociations(ctx context.Context, tx *sql.Tx, entryID int64, competencyIDs []int64) error {
	for _, cid := range competencyIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entry_competencies (entry_id, competency_id) VALUES (?, ?)`,
			entryID, cid,
		); err != nil {
			return fmt.Errorf("sqlite: linking entry %d to competency %d: %w", entryID, cid, err)
		}
	}
	return nil
}
