package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.InterviewLink) error
	// GetByToken returns the link enriched with role and interviewer info.
	// When the enriched join fails structurally it degrades to the bare
	// link row plus a best-effort role lookup rather than failing the read.
	GetByToken(ctx context.Context, token string) (*models.LinkDetail, error)
	MarkUsed(ctx context.Context, token string) (*models.InterviewLink, error)
	ListByInterview(ctx context.Context, interviewID int64) ([]models.LinkWithCandidate, error)
	SetStitched(ctx context.Context, token, url string, at time.Time) error
	SetProcessingStatus(ctx context.Context, token, status string) error
}

type linkRepo struct {
	db *gorm.DB
}

func NewLinkRepo(db *gorm.DB) LinkRepository {
	return &linkRepo{db: db}
}

func (r *linkRepo) Create(ctx context.Context, link *models.InterviewLink) error {
	err := r.db.WithContext(ctx).Create(link).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *linkRepo) GetByToken(ctx context.Context, token string) (*models.LinkDetail, error) {
	var detail models.LinkDetail
	err := r.db.WithContext(ctx).
		Table("interview_links il").
		Select(`il.*, i.role_id, r.title AS role_title,
			intv.id AS interviewer_id, intv.name AS interviewer_name, intv.email AS interviewer_email`).
		Joins("JOIN interviews i ON il.interview_id = i.id").
		Joins("JOIN roles r ON i.role_id = r.id").
		Joins("LEFT JOIN interviewers intv ON r.interviewer_id = intv.id").
		Where("il.unique_token = ?", token).
		Take(&detail).Error
	if err == nil {
		return &detail, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}

	// Degraded path: return the bare link and enrich with role info if
	// that much still works.
	var bare models.InterviewLink
	ferr := r.db.WithContext(ctx).
		Where("unique_token = ?", token).
		Take(&bare).Error
	if errors.Is(ferr, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if ferr != nil {
		return nil, err
	}
	detail = models.LinkDetail{InterviewLink: bare}
	var role struct {
		RoleID    int64
		RoleTitle string
	}
	if rerr := r.db.WithContext(ctx).
		Table("interviews i").
		Select("r.id AS role_id, r.title AS role_title").
		Joins("JOIN roles r ON i.role_id = r.id").
		Where("i.id = ?", bare.InterviewID).
		Take(&role).Error; rerr == nil {
		detail.RoleID = role.RoleID
		detail.RoleTitle = role.RoleTitle
	}
	return &detail, nil
}

func (r *linkRepo) MarkUsed(ctx context.Context, token string) (*models.InterviewLink, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InterviewLink{}).
		Where("unique_token = ?", token).
		Update("used", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrNotFound
	}
	var link models.InterviewLink
	err := r.db.WithContext(ctx).
		Where("unique_token = ?", token).
		Take(&link).Error
	return &link, err
}

func (r *linkRepo) ListByInterview(ctx context.Context, interviewID int64) ([]models.LinkWithCandidate, error) {
	var rows []models.LinkWithCandidate
	err := r.db.WithContext(ctx).
		Table("interview_links il").
		Select("il.*, COALESCE(c.name, '') AS candidate_name").
		Joins(`LEFT JOIN candidates c ON il.candidate_email = c.email
			AND c.role_id = (SELECT role_id FROM interviews WHERE id = ?)`, interviewID).
		Where("il.interview_id = ?", interviewID).
		Order("il.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *linkRepo) SetStitched(ctx context.Context, token, url string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.InterviewLink{}).
		Where("unique_token = ?", token).
		Updates(map[string]any{
			"stitched_video_url": url,
			"stitched_at":        at,
			"processing_status":  models.ProcessingCompleted,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *linkRepo) SetProcessingStatus(ctx context.Context, token, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.InterviewLink{}).
		Where("unique_token = ?", token).
		Update("processing_status", status).Error
}
