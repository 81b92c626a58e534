// Package storage holds the reading and photo store implementations used
// by the submission and query services.
package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/gaugewatch/models"
	"p9e.in/gaugewatch/pkg/readings"
)

// GormReadingStore keeps readings in a SQL database through gorm.
type GormReadingStore struct {
	db *gorm.DB
}

// NewGormReadingStore wraps an open gorm connection. The readings table
// must already be migrated.
func NewGormReadingStore(db *gorm.DB) *GormReadingStore {
	return &GormReadingStore{db: db}
}

func (s *GormReadingStore) Create(ctx context.Context, r *models.Reading) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormReadingStore) List(ctx context.Context, f readings.Filter) ([]models.Reading, error) {
	query := s.db.WithContext(ctx).Model(&models.Reading{})

	if f.SiteID != "" {
		query = query.Where("site_id = ?", f.SiteID)
	}
	if f.Verified != nil {
		query = query.Where("is_verified = ?", *f.Verified)
	}
	if !f.Since.IsZero() {
		query = query.Where("created_at >= ?", f.Since)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var out []models.Reading
	newestFirst := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "created_at"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
	if err := query.Order(newestFirst).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormReadingStore) Get(ctx context.Context, id string) (*models.Reading, error) {
	var r models.Reading
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, readings.ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormReadingStore) ReferencesPhoto(ctx context.Context, photoID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Reading{}).
		Where("photo_id = ?", photoID).
		Count(&count).Error
	return count > 0, err
}

// Ping checks the database connection, used by the health endpoint.
func (s *GormReadingStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
