package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/thought-journal/internal/apperror"
	"github.com/sakif/thought-journal/internal/model"
)

// newTestDB opens a throwaway in-memory database with the full schema and
// seeded catalog.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a local account and returns its id.
func createTestUser(t *testing.T, db *DB, login string) string {
	t.Helper()
	user := &model.User{Login: login, Email: login + "@example.com", PasswordHash: "x"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", login, err)
	}
	return user.ID
}

// createTestEntry inserts an entry for userID and fails the test on error.
func createTestEntry(t *testing.T, db *DB, userID, text string, competencyIDs []int64) *model.Entry {
	t.Helper()
	entry := &model.Entry{UserID: userID, Text: text}
	if err := db.Create(context.Background(), entry, competencyIDs); err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// associationCount counts entry_competencies rows for an entry, straight
// from the table, to catch orphans the public API would hide.
func associationCount(t *testing.T, db *DB, entryID int64) int {
	t.Helper()
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM entry_competencies WHERE entry_id = ?`, entryID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting associations: %v", err)
	}
	return n
}

func TestCreate(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")

	entry := &model.Entry{UserID: userID, Text: "hello"}
	if err := db.Create(context.Background(), entry, []int64{1, 3}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == 0 {
		t.Error("Create() did not set entry.ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Create() did not set entry.CreatedAt")
	}
	if got := entry.Competencies; len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Competencies = %v, want [1 3]", got)
	}
}

func TestCreate_PersistsAssociations(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	entry := createTestEntry(t, db, userID, "tagged", []int64{1, 3})

	entries, err := db.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.ID != entry.ID || got.Text != "tagged" {
		t.Errorf("entry = %+v, want id=%d text=%q", got, entry.ID, "tagged")
	}
	if len(got.Competencies) != 2 || got.Competencies[0] != 1 || got.Competencies[1] != 3 {
		t.Errorf("Competencies = %v, want [1 3]", got.Competencies)
	}
}

func TestCreate_UnknownCompetencyRollsBack(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")

	// 999 violates the foreign key; the entry row must roll back with it.
	entry := &model.Entry{UserID: userID, Text: "doomed"}
	if err := db.Create(context.Background(), entry, []int64{1, 999}); err == nil {
		t.Fatal("Create() with unknown competency id should fail")
	}

	entries, err := db.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0 after rollback", len(entries))
	}
}

func TestListByUser_UntaggedEntryHasEmptySet(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	createTestEntry(t, db, userID, "no tags", nil)

	entries, err := db.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	// The LEFT JOIN produces a NULL competency id here; it must be
	// filtered out, not surfaced as a zero or a null element.
	if entries[0].Competencies == nil {
		t.Error("Competencies is nil, want empty slice")
	}
	if len(entries[0].Competencies) != 0 {
		t.Errorf("Competencies = %v, want []", entries[0].Competencies)
	}
}

func TestListByUser_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	first := createTestEntry(t, db, userID, "first", nil)
	second := createTestEntry(t, db, userID, "second", []int64{2})

	entries, err := db.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Errorf("order = [%d %d], want [%d %d]",
			entries[0].ID, entries[1].ID, second.ID, first.ID)
	}
}

func TestListByUser_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestEntry(t, db, alice, "alice's thought", []int64{1})

	entries, err := db.ListByUser(context.Background(), bob)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("bob sees %d of alice's entries, want 0", len(entries))
	}
}

func TestUpdate_ReplacesTextAndAssociations(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	entry := createTestEntry(t, db, userID, "draft", []int64{1, 2})

	err := db.Update(context.Background(), entry.ID, userID, "final", []int64{3})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	entries, err := db.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	got := entries[0]
	if got.Text != "final" {
		t.Errorf("Text = %q, want %q", got.Text, "final")
	}
	if len(got.Competencies) != 1 || got.Competencies[0] != 3 {
		t.Errorf("Competencies = %v, want [3] (old set fully replaced)", got.Competencies)
	}
	if n := associationCount(t, db, entry.ID); n != 1 {
		t.Errorf("association rows = %d, want 1 (no leftovers)", n)
	}
}

func TestUpdate_EmptySetClearsAssociations(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	entry := createTestEntry(t, db, userID, "tagged", []int64{1, 2, 3})

	if err := db.Update(context.Background(), entry.ID, userID, "untagged now", nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if n := associationCount(t, db, entry.ID); n != 0 {
		t.Errorf("association rows = %d, want 0", n)
	}
}

func TestUpdate_ForeignOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	entry := createTestEntry(t, db, alice, "alice's", []int64{1})

	err := db.Update(context.Background(), entry.ID, bob, "hijacked", nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() by non-owner error = %v, want ErrNotFound", err)
	}

	// And nothing changed — including the association rows the failed
	// update would otherwise have cleared.
	entries, _ := db.ListByUser(context.Background(), alice)
	if entries[0].Text != "alice's" {
		t.Errorf("Text = %q, want unchanged", entries[0].Text)
	}
	if n := associationCount(t, db, entry.ID); n != 1 {
		t.Errorf("association rows = %d, want 1 (update rolled back)", n)
	}
}

func TestUpdate_MissingEntryIsNotFound(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")

	err := db.Update(context.Background(), 12345, userID, "ghost", nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")
	entry := createTestEntry(t, db, userID, "bye", []int64{1, 2})

	if err := db.Delete(context.Background(), entry.ID, userID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	entries, err := db.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
	if n := associationCount(t, db, entry.ID); n != 0 {
		t.Errorf("association rows = %d, want 0 (no orphans)", n)
	}
}

func TestDelete_ForeignOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	entry := createTestEntry(t, db, alice, "alice's", []int64{1})

	err := db.Delete(context.Background(), entry.ID, bob)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrNotFound", err)
	}

	// The association delete ran first inside the transaction; the
	// rollback must restore it.
	if n := associationCount(t, db, entry.ID); n != 1 {
		t.Errorf("association rows = %d, want 1 (delete rolled back)", n)
	}
}

func TestDelete_MissingEntryIsNotFound(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db, "alice")

	err := db.Delete(context.Background(), 98765, userID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}
