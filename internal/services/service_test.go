package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Interviewer{},
		&models.Role{},
		&models.Question{},
		&models.Interview{},
		&models.Candidate{},
		&models.InterviewLink{},
		&models.VideoAnswer{},
	))
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func seedInterviewer(t *testing.T, db *gorm.DB) *models.Interviewer {
	t.Helper()
	in := &models.Interviewer{Name: "Dana", Email: fmt.Sprintf("dana-%d@corp.test", time.Now().UnixNano())}
	require.NoError(t, db.Create(in).Error)
	return in
}

func seedRole(t *testing.T, db *gorm.DB, interviewerID int64) *models.Role {
	t.Helper()
	role := &models.Role{InterviewerID: interviewerID, Title: "Backend Engineer"}
	require.NoError(t, db.Create(role).Error)
	return role
}

func seedInterview(t *testing.T, db *gorm.DB, roleID int64) *models.Interview {
	t.Helper()
	iv := &models.Interview{RoleID: roleID}
	require.NoError(t, db.Create(iv).Error)
	return iv
}

func seedQuestions(t *testing.T, db *gorm.DB, roleID int64, texts ...string) []models.Question {
	t.Helper()
	qs := make([]models.Question, 0, len(texts))
	for i, text := range texts {
		q := models.Question{RoleID: roleID, QuestionText: text, QuestionOrder: i + 1}
		require.NoError(t, db.Create(&q).Error)
		qs = append(qs, q)
	}
	return qs
}

// fakeCache is an in-memory Cache + Counter for service tests.
type fakeCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
	sets     int
	dels     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, counters: map[string]int64{}}
}

func (f *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.sets++
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	f.dels++
	return nil
}

func (f *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[key]++
	return f.counters[key], nil
}

// fakeSender records sends and can be told to fail.
type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	fail  error
	bodys []string
}

func (f *fakeSender) Send(_ context.Context, to, body, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, to)
	f.bodys = append(f.bodys, body)
	return nil
}

func newLinkFixture(t *testing.T, db *gorm.DB) (*linkService, *models.Interview, *models.Role) {
	t.Helper()
	in := seedInterviewer(t, db)
	role := seedRole(t, db, in.ID)
	iv := seedInterview(t, db, role.ID)
	svc := NewLinkService(pgrepo.NewLinkRepo(db)).(*linkService)
	return svc, iv, role
}
