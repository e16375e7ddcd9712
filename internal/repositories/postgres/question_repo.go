package postgres

import (
	"context"
	"errors"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	Create(ctx context.Context, q *models.Question) error
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	ListByRole(ctx context.Context, roleID int64) ([]models.Question, error)
	CountByRole(ctx context.Context, roleID int64) (int64, error)
	UpdateText(ctx context.Context, id int64, text string) (*models.Question, error)
	Delete(ctx context.Context, id int64) error
	// SetOrders rewrites question_order for the given (id, order) pairs in
	// one transaction, scoped to the role so foreign ids are silently ignored.
	SetOrders(ctx context.Context, roleID int64, orders map[int64]int) error
}

type questionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) Create(ctx context.Context, q *models.Question) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *questionRepo) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	err := r.db.WithContext(ctx).Take(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &q, err
}

func (r *questionRepo) ListByRole(ctx context.Context, roleID int64) ([]models.Question, error) {
	var qs []models.Question
	err := r.db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("question_order ASC").
		Find(&qs).Error
	return qs, err
}

func (r *questionRepo) CountByRole(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}

func (r *questionRepo) UpdateText(ctx context.Context, id int64, text string) (*models.Question, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Update("question_text", text)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *questionRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Question{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *questionRepo) SetOrders(ctx context.Context, roleID int64, orders map[int64]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			if err := tx.Model(&models.Question{}).
				Where("id = ? AND role_id = ?", id, roleID).
				Update("question_order", order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
