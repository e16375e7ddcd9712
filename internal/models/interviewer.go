package models

import "time"

// Interviewer is the account that owns roles and reviews interviews.
// PasswordHash is nil for accounts created through an OAuth provider.
type Interviewer struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;type:text;not null" json:"name"`
	Email        string    `gorm:"column:email;type:text;uniqueIndex;not null" json:"email"`
	PasswordHash *string   `gorm:"column:password_hash;type:text" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Interviewer) TableName() string { return "interviewers" }
