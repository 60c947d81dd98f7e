package reports

import (
	"context"
	"errors"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xyz-asif/roadwatch/internal/pkg/pagination"
)

type reportRow struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	UserID      string       `gorm:"size:128;not null;index:idx_reports_user_created,priority:1"`
	Description string       `gorm:"type:text;not null"`
	Severity    string       `gorm:"size:16;not null"`
	Latitude    float64      `gorm:"not null"`
	Longitude   float64      `gorm:"not null"`
	ImageURL    string       `gorm:"type:text;not null"`
	Status      string       `gorm:"size:16;not null;index"`
	Votes       int          `gorm:"not null;default:0"`
	CreatedAt   time.Time    `gorm:"not null;index;index:idx_reports_user_created,priority:2"`
	UpdatedAt   time.Time    `gorm:"not null"`
	Comments    []commentRow `gorm:"foreignKey:ReportID"`
}

func (reportRow) TableName() string { return "pothole_reports" }

type commentRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"size:128;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (commentRow) TableName() string { return "report_comments" }

type voteRow struct {
	ReportID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:128;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

func (voteRow) TableName() string { return "report_votes" }

func (r reportRow) toReport() Report {
	out := Report{
		ID:          r.ID.String(),
		UserID:      r.UserID,
		Description: r.Description,
		Severity:    Severity(r.Severity),
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ImageURL:    r.ImageURL,
		Status:      Status(r.Status),
		Votes:       r.Votes,
		Comments:    make([]Comment, 0, len(r.Comments)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, c := range r.Comments {
		out.Comments = append(out.Comments, Comment{
			ID:        c.ID.String(),
			ReportID:  c.ReportID.String(),
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}

// Migration creates the report tables
func Migration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "20260301_create_pothole_reports",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&reportRow{}, &commentRow{}, &voteRow{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&voteRow{}, &commentRow{}, &reportRow{})
		},
	}
}

// GormRepository is the PostgreSQL store
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func parseUUID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrReportNotFound
	}
	return u, nil
}

func (g *GormRepository) Insert(ctx context.Context, report *Report) error {
	now := time.Now().UTC()
	row := reportRow{
		ID:          uuid.New(),
		UserID:      report.UserID,
		Description: report.Description,
		Severity:    string(report.Severity),
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		ImageURL:    report.ImageURL,
		Status:      string(report.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	report.ID = row.ID.String()
	report.CreatedAt = now
	report.UpdatedAt = now
	if report.Comments == nil {
		report.Comments = []Comment{}
	}
	return nil
}

func (g *GormRepository) ListNewestFirst(ctx context.Context) ([]Report, error) {
	var rows []reportRow
	if err := g.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReports(rows), nil
}

func (g *GormRepository) ListPage(ctx context.Context, userID string, req pagination.Request) ([]Report, int64, error) {
	q := g.db.WithContext(ctx).Model(&reportRow{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []reportRow
	if err := q.Order("created_at DESC, id DESC").Offset(req.Offset()).Limit(req.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toReports(rows), total, nil
}

func toReports(rows []reportRow) []Report {
	out := make([]Report, len(rows))
	for i, r := range rows {
		out[i] = r.toReport()
	}
	return out
}

func (g *GormRepository) GetByID(ctx context.Context, id string) (*Report, error) {
	uid, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	var row reportRow
	err = g.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&row, "id = ?", uid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	report := row.toReport()
	return &report, nil
}

func (g *GormRepository) UpdateStatusIfCurrent(ctx context.Context, id string, from, to Status) (bool, error) {
	uid, err := parseUUID(id)
	if err != nil {
		return false, err
	}

	result := g.db.WithContext(ctx).Model(&reportRow{}).
		Where("id = ? AND status = ?", uid, string(from)).
		Updates(map[string]interface{}{"status": string(to), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := g.GetByID(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (g *GormRepository) AddComment(ctx context.Context, c *Comment) error {
	uid, err := parseUUID(c.ReportID)
	if err != nil {
		return err
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&reportRow{}).Where("id = ?", uid).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrReportNotFound
		}

		row := commentRow{
			ID:        uuid.New(),
			ReportID:  uid,
			UserID:    c.UserID,
			Content:   c.Content,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		c.ID = row.ID.String()
		c.CreatedAt = row.CreatedAt
		return nil
	})
}

func (g *GormRepository) Vote(ctx context.Context, reportID, userID string) (int, error) {
	uid, err := parseUUID(reportID)
	if err != nil {
		return 0, err
	}

	var votes []int
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row reportRow
		if err := tx.Select("id").First(&row, "id = ?", uid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReportNotFound
			}
			return err
		}

		if err := tx.Create(&voteRow{ReportID: uid, UserID: userID, CreatedAt: time.Now().UTC()}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyVoted
			}
			return err
		}

		if err := tx.Model(&reportRow{}).Where("id = ?", uid).
			UpdateColumn("votes", gorm.Expr("votes + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&reportRow{}).Where("id = ?", uid).Pluck("votes", &votes).Error
	})
	if err != nil {
		return 0, err
	}
	if len(votes) == 0 {
		return 0, ErrReportNotFound
	}
	return votes[0], nil
}
