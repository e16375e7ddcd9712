package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hirevid/hirevid/internal/cache"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
)

const questionCacheTTL = 5 * time.Minute

type QuestionOrder struct {
	QuestionID int64 `json:"question_id"`
	Order      int   `json:"question_order"`
}

type QuestionService interface {
	Create(ctx context.Context, roleID int64, text string, order int) (*models.Question, error)
	ListByRole(ctx context.Context, roleID int64) ([]models.Question, error)
	// ListByToken is the candidate-facing fetch; it tolerates used links.
	ListByToken(ctx context.Context, token string) ([]models.Question, error)
	UpdateText(ctx context.Context, questionID int64, text string) (*models.Question, error)
	Delete(ctx context.Context, questionID int64) error
	// Reorder bulk-rewrites question_order for the role and returns the
	// resulting ordered list. Ids outside the role are silently ignored.
	Reorder(ctx context.Context, roleID int64, orders []QuestionOrder) ([]models.Question, error)
}

type questionService struct {
	questions pgrepo.QuestionRepository
	roles     pgrepo.RoleRepository
	links     LinkService
	cache     cache.Cache
}

func NewQuestionService(questions pgrepo.QuestionRepository, roles pgrepo.RoleRepository, links LinkService, c cache.Cache) QuestionService {
	return &questionService{questions: questions, roles: roles, links: links, cache: c}
}

func validOrder(order int) bool {
	return order >= 1 && order <= models.MaxQuestionsPerRole
}

func (s *questionService) invalidate(ctx context.Context, roleID int64) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, cache.QuestionsKey(roleID))
	}
}

func (s *questionService) Create(ctx context.Context, roleID int64, text string, order int) (*models.Question, error) {
	const op = "QuestionService.Create"

	text = strings.TrimSpace(text)
	if roleID <= 0 || text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role_id and question_text are required", nil)
	}
	if !validOrder(order) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question_order must be between 1 and 10", nil)
	}

	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "role not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to verify role", err)
	}

	count, err := s.questions.CountByRole(ctx, roleID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count questions", err)
	}
	if count >= models.MaxQuestionsPerRole {
		return nil, utils.E(utils.CodeInvalidArgument, op, "maximum of 10 questions allowed per role", nil)
	}

	q := &models.Question{
		RoleID:        roleID,
		QuestionText:  text,
		QuestionOrder: order,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create question", err)
	}
	s.invalidate(ctx, roleID)
	return q, nil
}

func (s *questionService) ListByRole(ctx context.Context, roleID int64) ([]models.Question, error) {
	const op = "QuestionService.ListByRole"

	if roleID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role_id is required", nil)
	}

	key := cache.QuestionsKey(roleID)
	if s.cache != nil {
		var cached []models.Question
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	qs, err := s.questions.ListByRole(ctx, roleID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list questions", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, qs, questionCacheTTL)
	}
	return qs, nil
}

func (s *questionService) ListByToken(ctx context.Context, token string) ([]models.Question, error) {
	link, err := s.links.ValidateReadable(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.ListByRole(ctx, link.RoleID)
}

func (s *questionService) UpdateText(ctx context.Context, questionID int64, text string) (*models.Question, error) {
	const op = "QuestionService.UpdateText"

	text = strings.TrimSpace(text)
	if questionID <= 0 || text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question_id and question_text are required", nil)
	}

	q, err := s.questions.UpdateText(ctx, questionID, text)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update question", err)
	}
	s.invalidate(ctx, q.RoleID)
	return q, nil
}

func (s *questionService) Delete(ctx context.Context, questionID int64) error {
	const op = "QuestionService.Delete"

	if questionID <= 0 {
		return utils.E(utils.CodeInvalidArgument, op, "question_id is required", nil)
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get question", err)
	}

	// The role must keep at least one non-empty question after deletion.
	remaining, err := s.questions.ListByRole(ctx, q.RoleID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to list questions", err)
	}
	keeps := 0
	for _, other := range remaining {
		if other.ID != questionID && strings.TrimSpace(other.QuestionText) != "" {
			keeps++
		}
	}
	if keeps == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "a role must keep at least one question", nil)
	}

	if err := s.questions.Delete(ctx, questionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to delete question", err)
	}
	s.invalidate(ctx, q.RoleID)
	return nil
}

func (s *questionService) Reorder(ctx context.Context, roleID int64, orders []QuestionOrder) ([]models.Question, error) {
	const op = "QuestionService.Reorder"

	if roleID <= 0 || len(orders) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role_id and question_orders are required", nil)
	}

	mapped := make(map[int64]int, len(orders))
	for _, o := range orders {
		if o.QuestionID <= 0 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "each item must have question_id and question_order", nil)
		}
		if !validOrder(o.Order) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "question_order must be between 1 and 10", nil)
		}
		mapped[o.QuestionID] = o.Order
	}

	if err := s.questions.SetOrders(ctx, roleID, mapped); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to reorder questions", err)
	}
	s.invalidate(ctx, roleID)

	qs, err := s.questions.ListByRole(ctx, roleID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list questions", err)
	}
	return qs, nil
}
