package postgres

import (
	"context"
	"errors"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewerRepository interface {
	Create(ctx context.Context, in *models.Interviewer) error
	GetByEmail(ctx context.Context, email string) (*models.Interviewer, error)
	GetByID(ctx context.Context, id int64) (*models.Interviewer, error)
	// Upsert inserts the interviewer or, when the email already exists,
	// backfills the name. The row is reloaded either way.
	Upsert(ctx context.Context, in *models.Interviewer) error
}

type interviewerRepo struct {
	db *gorm.DB
}

func NewInterviewerRepo(db *gorm.DB) InterviewerRepository {
	return &interviewerRepo{db: db}
}

func (r *interviewerRepo) Create(ctx context.Context, in *models.Interviewer) error {
	err := r.db.WithContext(ctx).Create(in).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *interviewerRepo) GetByEmail(ctx context.Context, email string) (*models.Interviewer, error) {
	var in models.Interviewer
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Take(&in).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &in, err
}

func (r *interviewerRepo) GetByID(ctx context.Context, id int64) (*models.Interviewer, error) {
	var in models.Interviewer
	err := r.db.WithContext(ctx).Take(&in, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &in, err
}

func (r *interviewerRepo) Upsert(ctx context.Context, in *models.Interviewer) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(in).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("email = ?", in.Email).
		Take(in).Error
}
