package models

// Interview is the one-per-role container that links belong to.
// Lazily created on first invitation.
type Interview struct {
	ID     int64 `gorm:"column:id;primaryKey" json:"id"`
	RoleID int64 `gorm:"column:role_id;uniqueIndex;not null" json:"role_id"`
}

func (Interview) TableName() string { return "interviews" }
