package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/rishikanthc/zendown/internal/similarity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:zendown_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&Note{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	repo, err := NewRepository(db)
	if err != nil {
		t.Fatalf("failed to build repository: %v", err)
	}
	return repo, db
}

func newTestService(t *testing.T, overrides func(*ServiceConfig)) (*Service, *gorm.DB) {
	t.Helper()
	repo, db := newTestRepository(t)
	cfg := ServiceConfig{
		Repository: repo,
		Clock:      func() time.Time { return time.Unix(1700000000, 0).UTC() },
		IDProvider: newSequenceIDProvider(),
	}
	if overrides != nil {
		overrides(&cfg)
	}
	service, err := NewService(cfg)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, db
}

type sequenceIDProvider struct {
	next int
}

func newSequenceIDProvider() *sequenceIDProvider {
	return &sequenceIDProvider{}
}

func (p *sequenceIDProvider) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("note-%04d", p.next), nil
}

// racingIDProvider inserts a competing note directly into storage right
// before the service's own insert runs, reproducing a lost uniqueness race
// between the pre-check and the write.
type racingIDProvider struct {
	db       *gorm.DB
	path     string
	injected bool
}

func (p *racingIDProvider) NewID() (string, error) {
	if !p.injected {
		p.injected = true
		rival := Note{
			ID:            "rival-0001",
			Title:         "Rival",
			Content:       "claimed first",
			CreatedOn:     time.Unix(1699999999, 0).UTC(),
			ModifiedOn:    time.Unix(1699999999, 0).UTC(),
			CanonicalPath: p.path,
		}
		if err := p.db.Create(&rival).Error; err != nil {
			return "", err
		}
	}
	return "loser-0001", nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	upserted []string
	deleted  []string
}

func (n *recordingNotifier) NoteUpserted(id, content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.upserted = append(n.upserted, id)
}

func (n *recordingNotifier) NoteDeleted(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
}

func (n *recordingNotifier) upsertedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.upserted...)
}

func (n *recordingNotifier) deletedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.deleted...)
}

type stubSearcher struct {
	matches []similarity.Match
	err     error
}

func (s *stubSearcher) SearchSimilar(ctx context.Context, id string, threshold float64, limit int) ([]similarity.Match, error) {
	return s.matches, s.err
}

func (s *stubSearcher) SearchSemantic(ctx context.Context, query string, threshold float64, limit int) ([]similarity.Match, error) {
	return s.matches, s.err
}

func mustUpsert(t *testing.T, service *Service, title, content string) Note {
	t.Helper()
	result, err := service.UpsertByTitle(context.Background(), UpsertInput{Title: title, Content: content})
	if err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}
	return result.Note
}

var errStub = errors.New("stub failure")
