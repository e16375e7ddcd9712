package models

import "time"

type Role struct {
	ID            int64     `gorm:"column:id;primaryKey" json:"id"`
	InterviewerID int64     `gorm:"column:interviewer_id;index;not null" json:"interviewer_id"`
	Title         string    `gorm:"column:title;type:varchar(150);not null" json:"title"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Role) TableName() string { return "roles" }

// RoleWithInterviewer is the admin listing row (roles joined with owner).
type RoleWithInterviewer struct {
	Role
	InterviewerName  string `json:"interviewer_name"`
	InterviewerEmail string `json:"interviewer_email"`
}
