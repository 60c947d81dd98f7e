package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migration creates the profiles table
func Migration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "20260228_create_profiles",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&Profile{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&Profile{})
		},
	}
}

// GormRepository is the PostgreSQL profile store
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (g *GormRepository) Create(ctx context.Context, p *Profile) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := g.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (g *GormRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	if err := g.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (g *GormRepository) BumpSessionVersion(ctx context.Context, id string) (int, error) {
	var versions []int
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Profile{}).Where("id = ?", id).Updates(map[string]interface{}{
			"session_version": gorm.Expr("session_version + 1"),
			"updated_at":      time.Now().UTC(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProfileNotFound
		}
		return tx.Model(&Profile{}).Where("id = ?", id).Pluck("session_version", &versions).Error
	})
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, ErrProfileNotFound
	}
	return versions[0], nil
}
