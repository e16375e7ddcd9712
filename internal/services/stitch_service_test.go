package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStore implements upload, download and signing over an in-memory map.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectName] = raw
	return "https://storage.googleapis.com/test-bucket/" + objectName, nil
}

func (f *fakeStore) Download(_ context.Context, objectName, destPath string) error {
	f.mu.Lock()
	raw, ok := f.objects[objectName]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("object %q not found", objectName)
	}
	return os.WriteFile(destPath, raw, 0o644)
}

func (f *fakeStore) SignedGetURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "https://signed.test/" + objectName, nil
}

// fakeTranscoder copies inputs through and counts invocations.
type fakeTranscoder struct {
	mu          sync.Mutex
	overlays    int
	concats     int
	overlayFail error
}

func (f *fakeTranscoder) Overlay(_ context.Context, inputPath, outputPath, _ string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overlayFail != nil {
		return f.overlayFail
	}
	f.overlays++
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, raw, 0o644)
}

func (f *fakeTranscoder) Concat(_ context.Context, inputPaths []string, outputPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concats++
	var joined []byte
	for _, p := range inputPaths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		joined = append(joined, raw...)
	}
	return os.WriteFile(outputPath, joined, 0o644)
}

type stitchFixture struct {
	svc        StitchService
	store      *fakeStore
	transcoder *fakeTranscoder
	sender     *fakeSender
	links      *linkService
	iv         *models.Interview
	role       *models.Role
	db         *gorm.DB
}

func newStitchFixture(t *testing.T) *stitchFixture {
	t.Helper()
	db := newTestDB(t)
	in := seedInterviewer(t, db)
	role := seedRole(t, db, in.ID)
	iv := seedInterview(t, db, role.ID)

	store := newFakeStore()
	transcoder := &fakeTranscoder{}
	sender := &fakeSender{}
	svc := NewStitchService(pgrepo.NewLinkRepo(db), pgrepo.NewVideoAnswerRepo(db), store, transcoder, sender, quietLogger())

	return &stitchFixture{svc: svc, store: store, transcoder: transcoder, sender: sender,
		links: NewLinkService(pgrepo.NewLinkRepo(db)).(*linkService), iv: iv, role: role, db: db}
}

func (f *stitchFixture) seedAnswer(t *testing.T, token string, q models.Question, content string) {
	t.Helper()
	objectName := fmt.Sprintf("interviews/%s/%d-cand.webm", token, q.ID)
	f.store.objects[objectName] = []byte(content)
	require.NoError(t, f.db.Create(&models.VideoAnswer{
		InterviewLinkToken: token,
		QuestionID:         q.ID,
		CandidateEmail:     "cand@mail.test",
		VideoURL:           "https://storage.googleapis.com/test-bucket/" + objectName,
		ObjectName:         objectName,
	}).Error)
}

func TestStitchAssemblesInOrder(t *testing.T) {
	f := newStitchFixture(t)
	ctx := context.Background()
	qs := seedQuestions(t, f.db, f.role.ID, "q1", "q2")
	link, err := f.links.Create(ctx, "cand@mail.test", f.iv.ID, 7)
	require.NoError(t, err)

	// Seed in reverse to prove ordering comes from question_order.
	f.seedAnswer(t, link.UniqueToken, qs[1], "SECOND")
	f.seedAnswer(t, link.UniqueToken, qs[0], "FIRST")

	result, err := f.svc.Stitch(ctx, link.UniqueToken)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "https://signed.test/interviews/"+link.UniqueToken+"/final_interview.mp4", result.URL)
	assert.Equal(t, 2, f.transcoder.overlays)
	assert.Equal(t, 1, f.transcoder.concats)

	final := f.store.objects["interviews/"+link.UniqueToken+"/final_interview.mp4"]
	assert.Equal(t, "FIRSTSECOND", string(final))

	var reloaded models.InterviewLink
	require.NoError(t, f.db.Where("unique_token = ?", link.UniqueToken).Take(&reloaded).Error)
	require.NotNil(t, reloaded.StitchedVideoURL)
	assert.Equal(t, result.URL, *reloaded.StitchedVideoURL)
	assert.Equal(t, models.ProcessingCompleted, reloaded.ProcessingStatus)
	assert.NotNil(t, reloaded.StitchedAt)

	assert.Equal(t, []string{"cand@mail.test"}, f.sender.sent)
}

func TestStitchSecondCallServedFromCache(t *testing.T) {
	f := newStitchFixture(t)
	ctx := context.Background()
	qs := seedQuestions(t, f.db, f.role.ID, "q1")
	link, err := f.links.Create(ctx, "cand@mail.test", f.iv.ID, 7)
	require.NoError(t, err)
	f.seedAnswer(t, link.UniqueToken, qs[0], "ONLY")

	first, err := f.svc.Stitch(ctx, link.UniqueToken)
	require.NoError(t, err)

	second, err := f.svc.Stitch(ctx, link.UniqueToken)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, 1, f.transcoder.overlays, "cached result must skip the pipeline")
}

func TestStitchNoAnswers(t *testing.T) {
	f := newStitchFixture(t)
	ctx := context.Background()
	link, err := f.links.Create(ctx, "cand@mail.test", f.iv.ID, 7)
	require.NoError(t, err)

	_, err = f.svc.Stitch(ctx, link.UniqueToken)
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Contains(t, err.Error(), "no video responses found")
}

func TestStitchUnknownToken(t *testing.T) {
	f := newStitchFixture(t)

	_, err := f.svc.Stitch(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestStitchFailureMarksFailedAndRetries(t *testing.T) {
	f := newStitchFixture(t)
	ctx := context.Background()
	qs := seedQuestions(t, f.db, f.role.ID, "q1")
	link, err := f.links.Create(ctx, "cand@mail.test", f.iv.ID, 7)
	require.NoError(t, err)
	f.seedAnswer(t, link.UniqueToken, qs[0], "ONLY")

	f.transcoder.overlayFail = fmt.Errorf("ffmpeg exploded")
	_, err = f.svc.Stitch(ctx, link.UniqueToken)
	require.Error(t, err)

	var reloaded models.InterviewLink
	require.NoError(t, f.db.Where("unique_token = ?", link.UniqueToken).Take(&reloaded).Error)
	assert.Equal(t, models.ProcessingFailed, reloaded.ProcessingStatus)
	assert.Nil(t, reloaded.StitchedVideoURL)

	// Nothing was cached, so clearing the fault lets a retry succeed.
	f.transcoder.overlayFail = nil
	result, err := f.svc.Stitch(ctx, link.UniqueToken)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
}

func TestStitchDecodesInlineDataURI(t *testing.T) {
	f := newStitchFixture(t)
	ctx := context.Background()
	qs := seedQuestions(t, f.db, f.role.ID, "q1")
	link, err := f.links.Create(ctx, "cand@mail.test", f.iv.ID, 7)
	require.NoError(t, err)

	require.NoError(t, f.db.Create(&models.VideoAnswer{
		InterviewLinkToken: link.UniqueToken,
		QuestionID:         qs[0].ID,
		CandidateEmail:     "cand@mail.test",
		VideoURL:           "data:video/webm;base64," + base64.StdEncoding.EncodeToString([]byte("INLINE")),
	}).Error)

	_, err = f.svc.Stitch(ctx, link.UniqueToken)
	require.NoError(t, err)
	final := f.store.objects["interviews/"+link.UniqueToken+"/final_interview.mp4"]
	assert.Equal(t, "INLINE", string(final))
}
