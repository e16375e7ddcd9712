package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
)

const maxRoleTitleLen = 150

type RoleService interface {
	// Create inserts a role, honoring a caller-supplied positive id. After
	// an explicit-id insert the id generator is advanced past it so future
	// sequence-assigned inserts cannot collide.
	Create(ctx context.Context, id *int64, interviewerID int64, title string) (*models.Role, error)
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	ListByInterviewer(ctx context.Context, interviewerID int64) ([]models.Role, error)
	ListAll(ctx context.Context) ([]models.RoleWithInterviewer, error)
}

type roleService struct {
	roles        pgrepo.RoleRepository
	interviewers pgrepo.InterviewerRepository
}

func NewRoleService(roles pgrepo.RoleRepository, interviewers pgrepo.InterviewerRepository) RoleService {
	return &roleService{roles: roles, interviewers: interviewers}
}

func (s *roleService) Create(ctx context.Context, id *int64, interviewerID int64, title string) (*models.Role, error) {
	const op = "RoleService.Create"

	title = strings.TrimSpace(title)
	if interviewerID <= 0 || title == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interviewer_id and title are required", nil)
	}
	if len(title) > maxRoleTitleLen {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title must be 150 characters or less", nil)
	}
	if id != nil && *id <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id must be a positive integer", nil)
	}

	if _, err := s.interviewers.GetByID(ctx, interviewerID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interviewer not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to verify interviewer", err)
	}

	role := &models.Role{
		InterviewerID: interviewerID,
		Title:         title,
		CreatedAt:     time.Now().UTC(),
	}
	if id != nil {
		role.ID = *id
	}

	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "role id already exists", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create role", err)
	}

	if id != nil {
		// The insert already succeeded; a stale sequence only risks a
		// conflict on some later sequence-assigned insert, which will
		// surface there. Do not fail the create over it.
		_ = s.roles.AdvanceSequence(ctx)
	}
	return role, nil
}

func (s *roleService) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	const op = "RoleService.GetByID"

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "role not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get role", err)
	}
	return role, nil
}

func (s *roleService) ListByInterviewer(ctx context.Context, interviewerID int64) ([]models.Role, error) {
	const op = "RoleService.ListByInterviewer"

	if interviewerID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interviewer_id is required", nil)
	}
	roles, err := s.roles.ListByInterviewer(ctx, interviewerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list roles", err)
	}
	return roles, nil
}

func (s *roleService) ListAll(ctx context.Context) ([]models.RoleWithInterviewer, error) {
	const op = "RoleService.ListAll"

	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list roles", err)
	}
	return roles, nil
}
