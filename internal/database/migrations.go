package database

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// RunMigrations applies the given migrations in order. Already applied ids are skipped.
func RunMigrations(db *gorm.DB, migrations ...*gormigrate.Migration) error {
	if len(migrations) == 0 {
		return nil
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations)
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
