package rewards

import (
	"context"
	"errors"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type rewardRow struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID         string     `gorm:"size:128;not null;index:idx_rewards_user_created,priority:1"`
	PointsRedeemed int        `gorm:"not null"`
	UPIID          string     `gorm:"column:upi_id;size:256;not null"`
	Status         string     `gorm:"size:16;not null"`
	CreatedAt      time.Time  `gorm:"not null;index:idx_rewards_user_created,priority:2"`
	CompletedAt    *time.Time
}

func (rewardRow) TableName() string { return "upi_rewards" }

func (r rewardRow) toReward() Reward {
	return Reward{
		ID:             r.ID.String(),
		UserID:         r.UserID,
		PointsRedeemed: r.PointsRedeemed,
		UPIID:          r.UPIID,
		Status:         Status(r.Status),
		CreatedAt:      r.CreatedAt,
		CompletedAt:    r.CompletedAt,
	}
}

// Migration creates the rewards table
func Migration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "20260302_create_upi_rewards",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&rewardRow{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&rewardRow{})
		},
	}
}

// GormRepository is the PostgreSQL reward store
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (g *GormRepository) Insert(ctx context.Context, reward *Reward) error {
	row := rewardRow{
		ID:             uuid.New(),
		UserID:         reward.UserID,
		PointsRedeemed: reward.PointsRedeemed,
		UPIID:          reward.UPIID,
		Status:         string(reward.Status),
		CreatedAt:      time.Now().UTC(),
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	reward.ID = row.ID.String()
	reward.CreatedAt = row.CreatedAt
	return nil
}

func (g *GormRepository) ListByUser(ctx context.Context, userID string) ([]Reward, error) {
	var rows []rewardRow
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Reward, len(rows))
	for i, r := range rows {
		out[i] = r.toReward()
	}
	return out, nil
}

func (g *GormRepository) SumRedeemed(ctx context.Context, userID string) (int, error) {
	var total int64
	err := g.db.WithContext(ctx).Model(&rewardRow{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points_redeemed), 0)").
		Scan(&total).Error
	return int(total), err
}

func (g *GormRepository) CompleteIfPending(ctx context.Context, id string) (*Reward, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRewardNotFound
	}

	var row rewardRow
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}

		now := time.Now().UTC()
		result := tx.Model(&rewardRow{}).
			Where("id = ? AND status = ?", uid, string(StatusPending)).
			Updates(map[string]interface{}{"status": string(StatusCompleted), "completed_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotPending
		}
		row.Status = string(StatusCompleted)
		row.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	reward := row.toReward()
	return &reward, nil
}
