package models

// Candidate is unique per (role_id, email). Submitted flips once the
// candidate finishes the camera test, not when the last answer lands.
type Candidate struct {
	ID        int64  `gorm:"column:id;primaryKey" json:"id"`
	RoleID    int64  `gorm:"column:role_id;uniqueIndex:idx_candidates_role_email;not null" json:"role_id"`
	Name      string `gorm:"column:name;type:text;not null" json:"name"`
	Email     string `gorm:"column:email;type:text;uniqueIndex:idx_candidates_role_email;not null" json:"email"`
	Submitted bool   `gorm:"column:submitted;default:false" json:"submitted"`
}

func (Candidate) TableName() string { return "candidates" }
