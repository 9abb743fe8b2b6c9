package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Repository owns persistence for note records. All note mutation in the
// process goes through it; the underlying table's unique index on
// canonical_path is the ultimate arbiter for slug collisions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a Repository over the provided database handle.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.New("notes: database handle is required")
	}
	return &Repository{db: db}, nil
}

// FindByIDOrPath resolves a public identifier that may be either a note id or
// a canonical path.
func (r *Repository) FindByIDOrPath(ctx context.Context, identifier string) (Note, error) {
	var note Note
	err := r.db.WithContext(ctx).
		Where("id = ? OR canonical_path = ?", identifier, identifier).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("notes: selecting note by identifier: %w", err)
	}
	return note, nil
}

// FindByID fetches a note by its immutable id.
func (r *Repository) FindByID(ctx context.Context, id string) (Note, error) {
	var note Note
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("notes: selecting note by id: %w", err)
	}
	return note, nil
}

// FindByPath fetches a note by its canonical path.
func (r *Repository) FindByPath(ctx context.Context, path string) (Note, error) {
	var note Note
	err := r.db.WithContext(ctx).Where("canonical_path = ?", path).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("notes: selecting note by path: %w", err)
	}
	return note, nil
}

// FindByPathExcluding fetches the note holding the canonical path, ignoring
// the note with the excluded id. Used to detect whether a path change would
// collide with a different note.
func (r *Repository) FindByPathExcluding(ctx context.Context, path, excludeID string) (Note, error) {
	var note Note
	err := r.db.WithContext(ctx).
		Where("canonical_path = ? AND id <> ?", path, excludeID).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("notes: selecting conflicting note: %w", err)
	}
	return note, nil
}

// Insert persists a new note. A uniqueness violation on canonical_path is
// reported as ErrDuplicatePath so the caller can reconcile the lost race.
func (r *Repository) Insert(ctx context.Context, note *Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		if isDuplicatePathError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, note.CanonicalPath)
		}
		return fmt.Errorf("notes: inserting note: %w", err)
	}
	return nil
}

// Update applies the staged changes to the note with the given id and returns
// the updated record. ErrNoteNotFound means the row vanished between the
// caller's read and this write; ErrDuplicatePath means a staged path change
// lost a race against the uniqueness constraint.
func (r *Repository) Update(ctx context.Context, id string, changes NoteChanges) (Note, error) {
	fields := make(map[string]any)
	if changes.Title != nil {
		fields["title"] = *changes.Title
	}
	if changes.Content != nil {
		fields["content"] = *changes.Content
	}
	if changes.Tags != nil {
		fields["tags"] = *changes.Tags
	}
	if changes.CanonicalPath != nil {
		fields["canonical_path"] = *changes.CanonicalPath
	}
	if changes.ModifiedOn != nil {
		fields["modified_on"] = *changes.ModifiedOn
	}

	result := r.db.WithContext(ctx).Model(&Note{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if isDuplicatePathError(result.Error) {
			return Note{}, fmt.Errorf("%w: update of %s", ErrDuplicatePath, id)
		}
		return Note{}, fmt.Errorf("notes: updating note: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return Note{}, ErrNoteNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete removes the note with the given id. ErrNoteNotFound is returned when
// no row matched.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Note{})
	if result.Error != nil {
		return fmt.Errorf("notes: deleting note: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// ListTitles returns the summary projection of every note, most recently
// modified first.
func (r *Repository) ListTitles(ctx context.Context) ([]NoteSummary, error) {
	var summaries []NoteSummary
	err := r.db.WithContext(ctx).Model(&Note{}).
		Select("id", "title", "canonical_path", "created_on", "modified_on").
		Order("modified_on DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("notes: listing titles: %w", err)
	}
	return summaries, nil
}

// BulkLookup resolves the given ids to note references. Unknown ids are
// silently omitted; the result may be shorter than the input and is never an
// error for missing rows.
func (r *Repository) BulkLookup(ctx context.Context, ids []string) ([]NoteRef, error) {
	refs := make([]NoteRef, 0, len(ids))
	err := r.db.WithContext(ctx).Model(&Note{}).
		Select("id", "title", "canonical_path").
		Where("id IN ?", ids).
		Find(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("notes: bulk lookup: %w", err)
	}
	return refs, nil
}

// ListContents returns id and content for every note, for hashtag scans.
func (r *Repository) ListContents(ctx context.Context) ([]NoteContent, error) {
	var contents []NoteContent
	err := r.db.WithContext(ctx).Model(&Note{}).
		Select("id", "content").
		Find(&contents).Error
	if err != nil {
		return nil, fmt.Errorf("notes: listing contents: %w", err)
	}
	return contents, nil
}

// isDuplicatePathError recognizes a canonical_path uniqueness violation. The
// translated gorm error covers dialects with TranslateError enabled; the
// string check mirrors SQLite's raw constraint message as a fallback.
func isDuplicatePathError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
