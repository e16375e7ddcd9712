package services

import (
	"context"
	"testing"

	"github.com/hirevid/hirevid/internal/cache"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuestionFixture(t *testing.T, db *gorm.DB) (QuestionService, *linkService, *models.Role, *models.Interview, *fakeCache) {
	t.Helper()
	in := seedInterviewer(t, db)
	role := seedRole(t, db, in.ID)
	iv := seedInterview(t, db, role.ID)
	fc := newFakeCache()
	links := NewLinkService(pgrepo.NewLinkRepo(db)).(*linkService)
	svc := NewQuestionService(pgrepo.NewQuestionRepo(db), pgrepo.NewRoleRepo(db), links, fc)
	return svc, links, role, iv, fc
}

func TestQuestionCreateCap(t *testing.T) {
	db := newTestDB(t)
	svc, _, role, _, _ := newQuestionFixture(t, db)
	ctx := context.Background()

	for i := 1; i <= models.MaxQuestionsPerRole; i++ {
		_, err := svc.Create(ctx, role.ID, "question", i)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, role.ID, "one too many", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum of 10 questions")
}

func TestQuestionCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc, _, role, _, _ := newQuestionFixture(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, role.ID, "   ", 1)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Create(ctx, role.ID, "q", 0)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Create(ctx, role.ID, "q", 11)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Create(ctx, role.ID+999, "q", 1)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestQuestionListCachesAndInvalidates(t *testing.T) {
	db := newTestDB(t)
	svc, _, role, _, fc := newQuestionFixture(t, db)
	ctx := context.Background()

	q, err := svc.Create(ctx, role.ID, "first", 1)
	require.NoError(t, err)

	// First list fills the cache; the second must be served from it.
	_, err = svc.ListByRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fc.sets)

	_, err = svc.ListByRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fc.sets)

	_, err = svc.UpdateText(ctx, q.ID, "first, revised")
	require.NoError(t, err)
	_, ok := fc.data[cache.QuestionsKey(role.ID)]
	assert.False(t, ok, "update must invalidate the role cache")
}

func TestQuestionDeleteKeepsAtLeastOne(t *testing.T) {
	db := newTestDB(t)
	svc, _, role, _, _ := newQuestionFixture(t, db)
	ctx := context.Background()

	qs := seedQuestions(t, db, role.ID, "keep me", "drop me")

	require.NoError(t, svc.Delete(ctx, qs[1].ID))

	err := svc.Delete(ctx, qs[0].ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one question")
}

func TestQuestionReorder(t *testing.T) {
	db := newTestDB(t)
	svc, _, role, _, _ := newQuestionFixture(t, db)
	ctx := context.Background()

	qs := seedQuestions(t, db, role.ID, "a", "b", "c")

	got, err := svc.Reorder(ctx, role.ID, []QuestionOrder{
		{QuestionID: qs[0].ID, Order: 3},
		{QuestionID: qs[1].ID, Order: 1},
		{QuestionID: qs[2].ID, Order: 2},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].QuestionText)
	assert.Equal(t, "c", got[1].QuestionText)
	assert.Equal(t, "a", got[2].QuestionText)
}

func TestQuestionReorderIgnoresForeignIDs(t *testing.T) {
	db := newTestDB(t)
	svc, _, role, _, _ := newQuestionFixture(t, db)
	ctx := context.Background()

	in2 := seedInterviewer(t, db)
	other := seedRole(t, db, in2.ID)
	foreign := seedQuestions(t, db, other.ID, "not yours")[0]
	mine := seedQuestions(t, db, role.ID, "mine")[0]

	_, err := svc.Reorder(ctx, role.ID, []QuestionOrder{
		{QuestionID: mine.ID, Order: 2},
		{QuestionID: foreign.ID, Order: 5},
	})
	require.NoError(t, err)

	var reloaded models.Question
	require.NoError(t, db.First(&reloaded, foreign.ID).Error)
	assert.Equal(t, 1, reloaded.QuestionOrder, "foreign role question must be untouched")
}

func TestQuestionListByTokenAllowsUsedLink(t *testing.T) {
	db := newTestDB(t)
	svc, links, role, iv, _ := newQuestionFixture(t, db)
	ctx := context.Background()

	seedQuestions(t, db, role.ID, "q1", "q2")

	link, err := links.Create(ctx, "cand@mail.test", iv.ID, 7)
	require.NoError(t, err)
	_, err = links.MarkUsed(ctx, link.UniqueToken)
	require.NoError(t, err)

	qs, err := svc.ListByToken(ctx, link.UniqueToken)
	require.NoError(t, err)
	assert.Len(t, qs, 2)
}
