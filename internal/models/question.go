package models

import "time"

// Question order is range-checked (1..10) but uniqueness within a role is
// not enforced; duplicate orders only affect sort stability.
type Question struct {
	ID            int64     `gorm:"column:id;primaryKey" json:"id"`
	RoleID        int64     `gorm:"column:role_id;index;not null" json:"role_id"`
	QuestionText  string    `gorm:"column:question_text;type:text;not null" json:"question_text"`
	QuestionOrder int       `gorm:"column:question_order;not null" json:"question_order"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Question) TableName() string { return "questions" }

const MaxQuestionsPerRole = 10
