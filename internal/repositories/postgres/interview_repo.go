package postgres

import (
	"context"
	"errors"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
)

type InterviewRepository interface {
	// GetOrCreate returns the one interview for the role, creating it
	// lazily on first invitation.
	GetOrCreate(ctx context.Context, roleID int64) (*models.Interview, error)
	GetByRole(ctx context.Context, roleID int64) (*models.Interview, error)
}

type interviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) InterviewRepository {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) GetOrCreate(ctx context.Context, roleID int64) (*models.Interview, error) {
	var iv models.Interview
	err := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Take(&iv).Error
	if err == nil {
		return &iv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	iv = models.Interview{RoleID: roleID}
	if err := r.db.WithContext(ctx).Create(&iv).Error; err != nil {
		// Lost a create race: another invite inserted the row first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Interview
			if gerr := r.db.WithContext(ctx).Where("role_id = ?", roleID).Take(&existing).Error; gerr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &iv, nil
}

func (r *interviewRepo) GetByRole(ctx context.Context, roleID int64) (*models.Interview, error) {
	var iv models.Interview
	err := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Take(&iv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &iv, err
}
