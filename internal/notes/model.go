package notes

import (
	"errors"
	"time"
)

var (
	// ErrTitleRequired indicates the title was missing or blank after trimming.
	ErrTitleRequired = errors.New("notes: title is required")
	// ErrNoteIDRequired indicates the note identifier was missing or blank.
	ErrNoteIDRequired = errors.New("notes: note id is required")
	// ErrTitleNotFound indicates content carried no level-1 heading to derive a title from.
	ErrTitleNotFound = errors.New("notes: no level-1 heading found in content")
	// ErrEmptySlug indicates the title collapsed to an empty canonical path.
	ErrEmptySlug = errors.New("notes: title produces an empty canonical path")
	// ErrNoteNotFound indicates no note matched the requested id or path.
	ErrNoteNotFound = errors.New("notes: note not found")
	// ErrPathConflict indicates the canonical path is already claimed by a different note.
	ErrPathConflict = errors.New("notes: canonical path already exists")
	// ErrDuplicatePath is the repository-level outcome of the storage uniqueness constraint.
	ErrDuplicatePath = errors.New("notes: duplicate canonical path")
	// ErrIndexUnavailable indicates the similarity index could not be reached.
	ErrIndexUnavailable = errors.New("notes: similarity index unavailable")
	// ErrIndexFailed indicates the similarity index answered with an error.
	ErrIndexFailed = errors.New("notes: similarity index request failed")
)

// Note is the persisted note record. The canonical path is always derived
// from the title by Slugify and is unique across the table; the storage
// constraint is the final authority on that uniqueness.
type Note struct {
	ID            string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Title         string    `gorm:"column:title;not null" json:"title"`
	Content       string    `gorm:"column:content;not null" json:"content"`
	CreatedOn     time.Time `gorm:"column:created_on;not null" json:"created_on"`
	ModifiedOn    time.Time `gorm:"column:modified_on;not null" json:"modified_on"`
	Tags          *string   `gorm:"column:tags" json:"tags"`
	CanonicalPath string    `gorm:"column:canonical_path;size:255;uniqueIndex" json:"canonical_path"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "note"
}

// NoteSummary is the listing projection: everything except content and tags.
type NoteSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CanonicalPath string    `json:"canonical_path"`
	CreatedOn     time.Time `json:"created_on"`
	ModifiedOn    time.Time `json:"modified_on"`
}

// NoteRef identifies a note by id, title, and canonical path.
type NoteRef struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CanonicalPath string `json:"canonical_path"`
}

// ScoredNoteRef pairs a note reference with a similarity score.
type ScoredNoteRef struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	CanonicalPath string  `json:"canonical_path"`
	Score         float64 `json:"score"`
}

// NoteContent carries just enough of a note for hashtag scans.
type NoteContent struct {
	ID      string
	Content string
}

// NoteChanges describes the fields an update may touch. Nil pointers leave
// the stored value untouched; Tags uses a double pointer so an update can
// distinguish "leave tags alone" (nil) from "clear tags" (pointer to nil).
type NoteChanges struct {
	Title         *string
	Content       *string
	Tags          **string
	CanonicalPath *string
	ModifiedOn    *time.Time
}
