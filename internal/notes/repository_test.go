package notes

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testNote(id, title, path string) Note {
	now := time.Unix(1700000000, 0).UTC()
	return Note{
		ID:            id,
		Title:         title,
		Content:       "# " + title + "\nbody",
		CreatedOn:     now,
		ModifiedOn:    now,
		CanonicalPath: path,
	}
}

func TestRepositoryInsertAndFind(t *testing.T) {
	repo, _ := newTestRepository(t)
	note := testNote("id-1", "First", "first")

	if err := repo.Insert(context.Background(), &note); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	byID, err := repo.FindByIDOrPath(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byPath, err := repo.FindByIDOrPath(context.Background(), "first")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.ID != byPath.ID || byID.CanonicalPath != byPath.CanonicalPath {
		t.Fatalf("lookup by id and by path disagree: %+v vs %+v", byID, byPath)
	}
}

func TestRepositoryInsertDuplicatePath(t *testing.T) {
	repo, _ := newTestRepository(t)
	first := testNote("id-1", "First", "shared")
	second := testNote("id-2", "Second", "shared")

	if err := repo.Insert(context.Background(), &first); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	err := repo.Insert(context.Background(), &second)
	if !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("expected ErrDuplicatePath, got %v", err)
	}

	stored, err := repo.FindByPath(context.Background(), "shared")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID != "id-1" {
		t.Fatalf("first writer should keep the path, got %s", stored.ID)
	}
}

func TestRepositoryUpdateMissingRow(t *testing.T) {
	repo, _ := newTestRepository(t)
	title := "Ghost"
	_, err := repo.Update(context.Background(), "missing", NoteChanges{Title: &title})
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestRepositoryUpdateClearsTags(t *testing.T) {
	repo, _ := newTestRepository(t)
	note := testNote("id-1", "First", "first")
	tags := "a,b"
	note.Tags = &tags
	if err := repo.Insert(context.Background(), &note); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	var cleared *string
	updated, err := repo.Update(context.Background(), "id-1", NoteChanges{Tags: &cleared})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if updated.Tags != nil {
		t.Fatalf("expected tags cleared to NULL, got %q", *updated.Tags)
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo, _ := newTestRepository(t)
	note := testNote("id-1", "First", "first")
	if err := repo.Insert(context.Background(), &note); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	if err := repo.Delete(context.Background(), "id-1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if err := repo.Delete(context.Background(), "id-1"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound on second delete, got %v", err)
	}
}

func TestRepositoryListTitlesOrder(t *testing.T) {
	repo, _ := newTestRepository(t)

	older := testNote("id-1", "Older", "older")
	older.ModifiedOn = time.Unix(1700000000, 0).UTC()
	newer := testNote("id-2", "Newer", "newer")
	newer.ModifiedOn = time.Unix(1700005000, 0).UTC()

	if err := repo.Insert(context.Background(), &older); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if err := repo.Insert(context.Background(), &newer); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	summaries, err := repo.ListTitles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].ID != "id-2" || summaries[1].ID != "id-1" {
		t.Fatalf("expected most recently modified first, got %s then %s", summaries[0].ID, summaries[1].ID)
	}
}

func TestRepositoryBulkLookupOmitsMissing(t *testing.T) {
	repo, _ := newTestRepository(t)
	note := testNote("id-1", "First", "first")
	if err := repo.Insert(context.Background(), &note); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	refs, err := repo.BulkLookup(context.Background(), []string{"id-1", "missing-1", "missing-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(refs))
	}
	if refs[0].ID != "id-1" || refs[0].Title != "First" || refs[0].CanonicalPath != "first" {
		t.Fatalf("unexpected ref: %+v", refs[0])
	}
}

func TestRepositoryFindByPathExcluding(t *testing.T) {
	repo, _ := newTestRepository(t)
	note := testNote("id-1", "First", "first")
	if err := repo.Insert(context.Background(), &note); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}

	if _, err := repo.FindByPathExcluding(context.Background(), "first", "id-1"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected own row excluded, got %v", err)
	}
	conflict, err := repo.FindByPathExcluding(context.Background(), "first", "id-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict.ID != "id-1" {
		t.Fatalf("expected id-1, got %s", conflict.ID)
	}
}
