package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rishikanthc/zendown/internal/notes"
)

const migrationBackfillCanonicalPaths = "2025-11-18_backfill_canonical_paths"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillCanonicalPaths, apply: backfillCanonicalPaths},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}

	return nil
}

// backfillCanonicalPaths derives canonical paths for rows imported from the
// schema that allowed a NULL canonical_path. Rows whose derived path is empty
// or already claimed are left alone; those need a manual title fix.
func backfillCanonicalPaths(db *gorm.DB) error {
	type row struct {
		ID    string
		Title string
	}

	var rows []row
	if err := db.Model(&notes.Note{}).
		Select("id", "title").
		Where("canonical_path IS NULL OR canonical_path = ''").
		Find(&rows).Error; err != nil {
		return err
	}

	for _, r := range rows {
		path := notes.Slugify(r.Title)
		if path == "" {
			continue
		}
		var taken int64
		if err := db.Model(&notes.Note{}).Where("canonical_path = ?", path).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			continue
		}
		if err := db.Model(&notes.Note{}).Where("id = ?", r.ID).
			Update("canonical_path", path).Error; err != nil {
			return err
		}
	}

	return nil
}
