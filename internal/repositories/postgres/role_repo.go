package postgres

import (
	"context"
	"errors"

	"github.com/hirevid/hirevid/internal/models"
	"github.com/hirevid/hirevid/internal/utils"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	ListByInterviewer(ctx context.Context, interviewerID int64) ([]models.Role, error)
	ListAll(ctx context.Context) ([]models.RoleWithInterviewer, error)
	// AdvanceSequence bumps the id generator past the highest existing id,
	// so caller-supplied primary keys do not collide with future inserts.
	AdvanceSequence(ctx context.Context) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	err := r.db.WithContext(ctx).Create(role).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrDuplicate
	}
	return err
}

func (r *roleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Take(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &role, err
}

func (r *roleRepo) ListByInterviewer(ctx context.Context, interviewerID int64) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).
		Where("interviewer_id = ?", interviewerID).
		Order("created_at DESC").
		Find(&roles).Error
	return roles, err
}

func (r *roleRepo) ListAll(ctx context.Context) ([]models.RoleWithInterviewer, error) {
	var rows []models.RoleWithInterviewer
	err := r.db.WithContext(ctx).
		Table("roles r").
		Select("r.id, r.interviewer_id, r.title, r.created_at, i.name AS interviewer_name, i.email AS interviewer_email").
		Joins("JOIN interviewers i ON r.interviewer_id = i.id").
		Order("r.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *roleRepo) AdvanceSequence(ctx context.Context) error {
	// Sequences only exist on postgres; the sqlite test dialect keys off
	// the rowid and never collides after an explicit insert.
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	return r.db.WithContext(ctx).Exec(
		`SELECT setval(pg_get_serial_sequence('roles', 'id'), (SELECT COALESCE(MAX(id), 0) + 1 FROM roles), false)`,
	).Error
}
