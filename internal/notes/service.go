package notes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rishikanthc/zendown/internal/similarity"
)

var (
	errMissingRepository = errors.New("notes: repository is required")
	errMissingIDProvider = errors.New("notes: id provider is required")
	noOpLogger           = zap.NewNop()
)

// Searcher answers read-side similarity queries. The index response is the
// payload on these paths, so failures surface to the caller instead of being
// swallowed.
type Searcher interface {
	SearchSimilar(ctx context.Context, id string, threshold float64, limit int) ([]similarity.Match, error)
	SearchSemantic(ctx context.Context, query string, threshold float64, limit int) ([]similarity.Match, error)
}

// Notifier receives best-effort, post-commit notifications about note
// content. Implementations must never block the caller on the outcome.
type Notifier interface {
	NoteUpserted(id, content string)
	NoteDeleted(id string)
}

// ServiceConfig describes the dependencies of the note service.
type ServiceConfig struct {
	Repository *Repository
	Clock      func() time.Time
	IDProvider IDProvider
	Searcher   Searcher
	Notifier   Notifier
	Logger     *zap.Logger
}

// Service orchestrates note writes: it derives and validates canonical
// paths, decides create-versus-update, resolves slug collisions, commits
// through the repository, and dispatches post-commit index notifications.
type Service struct {
	repo     *Repository
	clock    func() time.Time
	ids      IDProvider
	searcher Searcher
	notifier Notifier
	logger   *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repository == nil {
		return nil, errMissingRepository
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		repo:     cfg.Repository,
		clock:    clock,
		ids:      cfg.IDProvider,
		searcher: cfg.Searcher,
		notifier: cfg.Notifier,
		logger:   logger,
	}, nil
}

// UpsertInput is the payload of the title-keyed upsert.
type UpsertInput struct {
	Title   string
	Content string
	Tags    TagsInput
}

// UpsertResult reports the committed note and whether it was newly created.
type UpsertResult struct {
	Note    Note
	Created bool
}

// UpsertByTitle creates or updates a note keyed by the canonical path derived
// from the title. Re-submitting a title that slugifies to an existing path
// always edits that same note; the stored id and path never change on this
// route. An insert losing the uniqueness race against a concurrent writer is
// reconciled with exactly one re-query: the path now being taken means
// conflict, anything else is an internal failure. The write is never retried
// and the slug is never auto-suffixed.
func (s *Service) UpsertByTitle(ctx context.Context, input UpsertInput) (UpsertResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return UpsertResult{}, ErrTitleRequired
	}

	path := Slugify(title)
	if path == "" {
		return UpsertResult{}, fmt.Errorf("%w: %q", ErrEmptySlug, title)
	}

	tags := input.Tags.Normalize()
	now := s.clock().UTC()

	existing, err := s.repo.FindByPath(ctx, path)
	switch {
	case err == nil:
		changes := NoteChanges{
			Title:      &title,
			Content:    &input.Content,
			Tags:       &tags,
			ModifiedOn: &now,
		}
		updated, err := s.repo.Update(ctx, existing.ID, changes)
		if err != nil {
			if errors.Is(err, ErrNoteNotFound) {
				// Deleted between the path lookup and the write.
				return UpsertResult{}, ErrNoteNotFound
			}
			s.logError("upsert_update_failed", err, zap.String("note_id", existing.ID))
			return UpsertResult{}, err
		}
		s.notifyUpserted(updated)
		return UpsertResult{Note: updated}, nil

	case errors.Is(err, ErrNoteNotFound):
		created, err := s.insertNew(ctx, title, input.Content, tags, path, now)
		if err != nil {
			return UpsertResult{}, err
		}
		s.notifyUpserted(created)
		return UpsertResult{Note: created, Created: true}, nil

	default:
		s.logError("upsert_lookup_failed", err, zap.String("canonical_path", path))
		return UpsertResult{}, err
	}
}

// ContentInput is the payload of the content-derived create.
type ContentInput struct {
	Content string
	Tags    TagsInput
}

// CreateFromContent creates a note whose title is the first level-1 heading
// of the content. This route never updates: a note already holding the
// derived path is a conflict, and the existing note is left untouched.
func (s *Service) CreateFromContent(ctx context.Context, input ContentInput) (Note, error) {
	title, ok := ExtractTitle(input.Content)
	if !ok {
		return Note{}, ErrTitleNotFound
	}

	path := Slugify(title)
	if path == "" {
		return Note{}, fmt.Errorf("%w: %q", ErrEmptySlug, title)
	}

	_, err := s.repo.FindByPath(ctx, path)
	if err == nil {
		return Note{}, fmt.Errorf("%w: %s", ErrPathConflict, path)
	}
	if !errors.Is(err, ErrNoteNotFound) {
		s.logError("create_lookup_failed", err, zap.String("canonical_path", path))
		return Note{}, err
	}

	created, err := s.insertNew(ctx, title, input.Content, input.Tags.Normalize(), path, s.clock().UTC())
	if err != nil {
		return Note{}, err
	}
	s.notifyUpserted(created)
	return created, nil
}

// ContentUpdateInput is the payload of the content-derived update.
type ContentUpdateInput struct {
	ID      string
	Content string
	Tags    TagsInput
}

// UpdateFromContent rewrites an existing note, keyed by its immutable id. The
// title is re-extracted from the content; a title change stages a new
// canonical path, which must not collide with any other note. The id is
// checked again implicitly at commit time: a row that vanished between fetch
// and update reports not found.
func (s *Service) UpdateFromContent(ctx context.Context, input ContentUpdateInput) (Note, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return Note{}, ErrNoteIDRequired
	}

	title, ok := ExtractTitle(input.Content)
	if !ok {
		return Note{}, ErrTitleNotFound
	}

	path := Slugify(title)
	if path == "" {
		return Note{}, fmt.Errorf("%w: %q", ErrEmptySlug, title)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return Note{}, ErrNoteNotFound
		}
		s.logError("update_fetch_failed", err, zap.String("note_id", id))
		return Note{}, err
	}

	tags := input.Tags.Normalize()
	now := s.clock().UTC()
	changes := NoteChanges{
		Content:    &input.Content,
		Tags:       &tags,
		ModifiedOn: &now,
	}

	if title != existing.Title || path != existing.CanonicalPath {
		changes.Title = &title
		if path != existing.CanonicalPath {
			_, err := s.repo.FindByPathExcluding(ctx, path, id)
			if err == nil {
				return Note{}, fmt.Errorf("%w: %s", ErrPathConflict, path)
			}
			if !errors.Is(err, ErrNoteNotFound) {
				s.logError("update_conflict_check_failed", err, zap.String("canonical_path", path))
				return Note{}, err
			}
			changes.CanonicalPath = &path
		}
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return Note{}, ErrNoteNotFound
		}
		if errors.Is(err, ErrDuplicatePath) {
			// Lost a race on the staged path change; the constraint decided.
			return Note{}, fmt.Errorf("%w: %s", ErrPathConflict, path)
		}
		s.logError("update_commit_failed", err, zap.String("note_id", id))
		return Note{}, err
	}

	s.notifyUpserted(updated)
	return updated, nil
}

// Get resolves a public identifier that may be a note id or a canonical path.
func (s *Service) Get(ctx context.Context, identifier string) (Note, error) {
	if strings.TrimSpace(identifier) == "" {
		return Note{}, ErrNoteIDRequired
	}
	return s.repo.FindByIDOrPath(ctx, identifier)
}

// Delete removes a note by id and dispatches a best-effort index removal.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrNoteIDRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NoteDeleted(id)
	}
	return nil
}

// ExistsResult reports whether a canonical path is taken and by which note.
type ExistsResult struct {
	Exists        bool   `json:"exists"`
	CanonicalPath string `json:"canonical_path"`
	ID            string `json:"id,omitempty"`
}

// Exists checks whether a note occupies the canonical path, supplied either
// directly or derived from a title.
func (s *Service) Exists(ctx context.Context, title, canonicalPath string) (ExistsResult, error) {
	path := strings.TrimSpace(canonicalPath)
	if path == "" {
		path = Slugify(strings.TrimSpace(title))
	}
	if path == "" {
		return ExistsResult{}, ErrEmptySlug
	}

	note, err := s.repo.FindByPath(ctx, path)
	if errors.Is(err, ErrNoteNotFound) {
		return ExistsResult{CanonicalPath: path}, nil
	}
	if err != nil {
		return ExistsResult{}, err
	}
	return ExistsResult{Exists: true, CanonicalPath: path, ID: note.ID}, nil
}

// ListTitles returns every note's summary, most recently modified first.
func (s *Service) ListTitles(ctx context.Context) ([]NoteSummary, error) {
	return s.repo.ListTitles(ctx)
}

// BulkLookup resolves ids to note references, omitting ids with no note.
func (s *Service) BulkLookup(ctx context.Context, ids []string) ([]NoteRef, error) {
	return s.repo.BulkLookup(ctx, ids)
}

// TagsForNote returns the unique inline hashtags of one note's content.
func (s *Service) TagsForNote(ctx context.Context, id string) ([]string, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNoteIDRequired
	}
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tags := ExtractHashtags(note.Content)
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// NotesWithTag returns the ids of every note whose content carries the
// inline hashtag.
func (s *Service) NotesWithTag(ctx context.Context, tag string) ([]string, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, errors.New("notes: tag is required")
	}
	contents, err := s.repo.ListContents(ctx)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, entry := range contents {
		for _, candidate := range ExtractHashtags(entry.Content) {
			if candidate == tag {
				ids = append(ids, entry.ID)
				break
			}
		}
	}
	return ids, nil
}

// Related finds notes similar to the given note through the external index
// and joins the scored ids with stored titles and paths, best match first.
func (s *Service) Related(ctx context.Context, id string, threshold float64, limit int) ([]ScoredNoteRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNoteIDRequired
	}
	if s.searcher == nil {
		return nil, ErrIndexUnavailable
	}
	matches, err := s.searcher.SearchSimilar(ctx, id, threshold, limit)
	if err != nil {
		return nil, s.wrapIndexError(err)
	}
	return s.resolveMatches(ctx, matches)
}

// SemanticSearch resolves a free-text query against the external index and
// joins the scored ids with stored titles and paths, best match first.
func (s *Service) SemanticSearch(ctx context.Context, query string, threshold float64, limit int) ([]ScoredNoteRef, error) {
	if s.searcher == nil {
		return nil, ErrIndexUnavailable
	}
	matches, err := s.searcher.SearchSemantic(ctx, query, threshold, limit)
	if err != nil {
		return nil, s.wrapIndexError(err)
	}
	return s.resolveMatches(ctx, matches)
}

func (s *Service) insertNew(ctx context.Context, title, content string, tags *string, path string, now time.Time) (Note, error) {
	id, err := s.ids.NewID()
	if err != nil {
		s.logError("id_generation_failed", err)
		return Note{}, err
	}

	note := Note{
		ID:            id,
		Title:         title,
		Content:       content,
		CreatedOn:     now,
		ModifiedOn:    now,
		Tags:          tags,
		CanonicalPath: path,
	}

	if err := s.repo.Insert(ctx, &note); err != nil {
		if errors.Is(err, ErrDuplicatePath) {
			// The pre-check passed but the constraint rejected the insert: a
			// concurrent writer claimed the path first. One reconciliation
			// query decides between conflict and a genuine storage fault.
			if _, lookupErr := s.repo.FindByPath(ctx, path); lookupErr == nil {
				return Note{}, fmt.Errorf("%w: %s", ErrPathConflict, path)
			}
			s.logError("insert_reconciliation_failed", err, zap.String("canonical_path", path))
			return Note{}, fmt.Errorf("notes: insert failed without a visible conflict on %s", path)
		}
		s.logError("insert_failed", err, zap.String("canonical_path", path))
		return Note{}, err
	}

	return note, nil
}

func (s *Service) resolveMatches(ctx context.Context, matches []similarity.Match) ([]ScoredNoteRef, error) {
	if len(matches) == 0 {
		return []ScoredNoteRef{}, nil
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float64, len(matches))
	for _, match := range matches {
		ids = append(ids, match.ID)
		scores[match.ID] = match.Score
	}

	refs, err := s.repo.BulkLookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredNoteRef, 0, len(refs))
	for _, ref := range refs {
		scored = append(scored, ScoredNoteRef{
			ID:            ref.ID,
			Title:         ref.Title,
			CanonicalPath: ref.CanonicalPath,
			Score:         scores[ref.ID],
		})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored, nil
}

func (s *Service) wrapIndexError(err error) error {
	if errors.Is(err, similarity.ErrUnreachable) {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrIndexFailed, err)
}

func (s *Service) notifyUpserted(note Note) {
	if s.notifier == nil {
		return
	}
	s.notifier.NoteUpserted(note.ID, note.Content)
}

func (s *Service) logError(reason string, err error, fields ...zap.Field) {
	attrs := append([]zap.Field{zap.String("reason", reason), zap.Error(err)}, fields...)
	s.logger.Error("notes service error", attrs...)
}
