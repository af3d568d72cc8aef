package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bgremover/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserRepository(db *gorm.DB, log *zap.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// Upsert creates a user row on first contact or refreshes the name fields on
// every later one. The counter and created_at are never touched on the update
// path, and near-simultaneous first contacts resolve via ON CONFLICT instead
// of a duplicate-key failure.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username, firstName string) error {
	user := model.User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name"}),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", userID, err)
	}
	return nil
}

// IncrementPhotosProcessed bumps the counter by one. A missing id is a
// no-op: no row is created and no error returned.
func (r *UserRepository) IncrementPhotosProcessed(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		UpdateColumn("photos_processed", gorm.Expr("photos_processed + 1"))
	if res.Error != nil {
		return fmt.Errorf("increment photos for user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		r.log.Warn("increment for unknown user", zap.Int64("user_id", userID))
	}
	return nil
}

// Profile returns the read view for the given user or gorm.ErrRecordNotFound.
func (r *UserRepository) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	profile := model.NewProfile(user)
	return &profile, nil
}

// UsageStats aggregates totals across all known users.
type UsageStats struct {
	TotalUsers  int64
	TotalPhotos int64
}

// Stats counts users and sums their processed-photo counters.
func (r *UserRepository) Stats(ctx context.Context) (UsageStats, error) {
	var stats UsageStats
	db := r.db.WithContext(ctx).Model(&model.User{})
	if err := db.Count(&stats.TotalUsers).Error; err != nil {
		return stats, fmt.Errorf("count users: %w", err)
	}
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("COALESCE(SUM(photos_processed), 0)").
		Scan(&stats.TotalPhotos).Error
	if err != nil {
		return stats, fmt.Errorf("sum photos: %w", err)
	}
	return stats, nil
}
