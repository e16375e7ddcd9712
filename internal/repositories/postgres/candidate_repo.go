package postgres

import (
	"context"
	"errors"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
)

type CandidateRepository interface {
	Create(ctx context.Context, c *models.Candidate) error
	GetByEmailAndRole(ctx context.Context, roleID int64, email string) (*models.Candidate, error)
	SetSubmitted(ctx context.Context, id int64, submitted bool) error
}

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) Create(ctx context.Context, c *models.Candidate) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *candidateRepo) GetByEmailAndRole(ctx context.Context, roleID int64, email string) (*models.Candidate, error) {
	var c models.Candidate
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND email = ?", roleID, email).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &c, err
}

func (r *candidateRepo) SetSubmitted(ctx context.Context, id int64, submitted bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ?", id).
		Update("submitted", submitted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
