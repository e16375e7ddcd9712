package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VideoAnswerRepository interface {
	// Upsert keys on (interview_link_token, question_id); a second write
	// for the same pair replaces the row and refreshes created_at.
	Upsert(ctx context.Context, a *models.VideoAnswer) error
	GetByTokenAndQuestion(ctx context.Context, token string, questionID int64) (*models.VideoAnswer, error)
	ListByToken(ctx context.Context, token string) ([]models.VideoAnswerWithQuestion, error)
	CountByToken(ctx context.Context, token string) (int64, error)
	// ListSummaries is the interviewer aggregate: used links owned by the
	// interviewer with at least one answer, newest answer first.
	ListSummaries(ctx context.Context, interviewerID int64, roleID *int64, limit int) ([]models.ResponseSummary, error)
}

type videoAnswerRepo struct {
	db *gorm.DB
}

func NewVideoAnswerRepo(db *gorm.DB) VideoAnswerRepository {
	return &videoAnswerRepo{db: db}
}

func (r *videoAnswerRepo) Upsert(ctx context.Context, a *models.VideoAnswer) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "interview_link_token"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"candidate_email", "video_url", "object_name", "recording_duration", "metadata", "created_at",
			}),
		}).
		Create(a).Error
}

func (r *videoAnswerRepo) GetByTokenAndQuestion(ctx context.Context, token string, questionID int64) (*models.VideoAnswer, error) {
	var a models.VideoAnswer
	err := r.db.WithContext(ctx).
		Where("interview_link_token = ? AND question_id = ?", token, questionID).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *videoAnswerRepo) ListByToken(ctx context.Context, token string) ([]models.VideoAnswerWithQuestion, error) {
	var rows []models.VideoAnswerWithQuestion
	err := r.db.WithContext(ctx).
		Table("video_answers va").
		Select("va.*, q.question_text, q.question_order").
		Joins("JOIN questions q ON va.question_id = q.id").
		Where("va.interview_link_token = ?", token).
		Order("q.question_order ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *videoAnswerRepo) CountByToken(ctx context.Context, token string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VideoAnswer{}).
		Where("interview_link_token = ?", token).
		Count(&count).Error
	return count, err
}

func (r *videoAnswerRepo) ListSummaries(ctx context.Context, interviewerID int64, roleID *int64, limit int) ([]models.ResponseSummary, error) {
	q := r.db.WithContext(ctx).
		Table("interview_links il").
		Select(`il.unique_token, il.candidate_email, r.id AS role_id, r.title AS role_title,
			il.created_at AS invited_at,
			COUNT(va.id) AS answer_count,
			MAX(va.created_at) AS last_answer_at`).
		Joins("JOIN interviews i ON il.interview_id = i.id").
		Joins("JOIN roles r ON i.role_id = r.id").
		Joins("JOIN video_answers va ON va.interview_link_token = il.unique_token").
		Where("il.used = ? AND r.interviewer_id = ?", true, interviewerID).
		Group("il.unique_token, il.candidate_email, r.id, r.title, il.created_at").
		Order("last_answer_at DESC")
	if roleID != nil {
		q = q.Where("r.id = ?", *roleID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var raw []summaryRow
	if err := q.Scan(&raw).Error; err != nil {
		return nil, err
	}
	rows := make([]models.ResponseSummary, 0, len(raw))
	for _, row := range raw {
		rows = append(rows, models.ResponseSummary{
			UniqueToken:    row.UniqueToken,
			CandidateEmail: row.CandidateEmail,
			RoleID:         row.RoleID,
			RoleTitle:      row.RoleTitle,
			InvitedAt:      row.InvitedAt,
			AnswerCount:    row.AnswerCount,
			LastAnswerAt:   row.LastAnswerAt.t,
		})
	}
	return rows, nil
}

// summaryRow is the scan target for the aggregate query. last_answer_at
// goes through aggTime because MAX() erases the column type and the
// sqlite driver then hands the value back as text.
type summaryRow struct {
	UniqueToken    string
	CandidateEmail string
	RoleID         int64
	RoleTitle      string
	InvitedAt      time.Time
	AnswerCount    int
	LastAnswerAt   aggTime
}

type aggTime struct {
	t *time.Time
}

func (a *aggTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		u := x
		a.t = &u
		return nil
	case []byte:
		return a.parse(string(x))
	case string:
		return a.parse(x)
	default:
		return fmt.Errorf("cannot scan %T into last_answer_at", v)
	}
}

func (a *aggTime) parse(s string) error {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			a.t = &t
			return nil
		}
	}
	return fmt.Errorf("cannot parse last_answer_at %q", s)
}

func (a aggTime) Value() (driver.Value, error) {
	if a.t == nil {
		return nil, nil
	}
	return *a.t, nil
}
