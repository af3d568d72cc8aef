package model

import "time"

// Placeholder replaces name fields the user never provided.
const Placeholder = "—"

// User stores Telegram user metadata and the running photo counter.
// There is exactly one row per Telegram user id.
type User struct {
	UserID          int64  `gorm:"column:user_id;primaryKey"`
	Username        string `gorm:"column:username"`
	FirstName       string `gorm:"column:first_name"`
	PhotosProcessed int64  `gorm:"column:photos_processed;not null;default:0"`
	CreatedAt       time.Time
}

func (User) TableName() string {
	return "users"
}

// Profile is the read-only projection of a user row shown to end users.
type Profile struct {
	UserID          int64
	Username        string
	FirstName       string
	PhotosProcessed int64
	CreatedAt       time.Time
}

// NewProfile builds the read view with empty name fields defaulted to the
// placeholder.
func NewProfile(u User) Profile {
	p := Profile{
		UserID:          u.UserID,
		Username:        u.Username,
		FirstName:       u.FirstName,
		PhotosProcessed: u.PhotosProcessed,
		CreatedAt:       u.CreatedAt,
	}
	if p.Username == "" {
		p.Username = Placeholder
	}
	if p.FirstName == "" {
		p.FirstName = Placeholder
	}
	return p
}
