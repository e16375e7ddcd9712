package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hirevid/hirevid/internal/cache"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/storage"
	"github.com/hirevid/hirevid/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const maxVideoBytes = 500 << 20

// StitchEnqueuer hands a finished-looking interview to the background
// stitch pipeline. Implemented by the worker pool; a nil enqueuer
// disables automatic stitching.
type StitchEnqueuer interface {
	Enqueue(ctx context.Context, token string) error
}

type SubmitAnswerInput struct {
	Token             string
	QuestionID        int64
	CandidateEmail    string
	Video             []byte
	ContentType       string
	Filename          string
	RecordingDuration *float64
}

// answerStore is the blob surface the submit flow needs: upload the new
// recording and reap the one it replaces.
type answerStore interface {
	storage.Uploader
	storage.Remover
}

type VideoService interface {
	// SubmitAnswer uploads the recording and upserts the answer row.
	// A second submission for the same (token, question) replaces the
	// earlier one.
	SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (*models.VideoAnswer, error)
	// ListAnswers returns the candidate's answers in question order,
	// readable on used links.
	ListAnswers(ctx context.Context, token string) (*models.LinkDetail, []models.VideoAnswerWithQuestion, error)
	// ListForInterviewer returns the aggregate response view for the
	// authenticated interviewer.
	ListForInterviewer(ctx context.Context, interviewerID int64, roleID *int64, limit int) ([]models.ResponseSummary, error)
	// GetForInterviewer returns one candidate's full answer set, with an
	// ownership check against the link's role.
	GetForInterviewer(ctx context.Context, interviewerID int64, token string) (*models.LinkDetail, []models.VideoAnswerWithQuestion, error)
}

type videoService struct {
	answers   pgrepo.VideoAnswerRepository
	questions pgrepo.QuestionRepository
	links     LinkService
	store     answerStore
	counter   cache.Counter
	stitcher  StitchEnqueuer
	log       *logrus.Logger
}

func NewVideoService(
	answers pgrepo.VideoAnswerRepository,
	questions pgrepo.QuestionRepository,
	links LinkService,
	store answerStore,
	counter cache.Counter,
	stitcher StitchEnqueuer,
	log *logrus.Logger,
) VideoService {
	return &videoService{
		answers:   answers,
		questions: questions,
		links:     links,
		store:     store,
		counter:   counter,
		stitcher:  stitcher,
		log:       log,
	}
}

func (s *videoService) SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (*models.VideoAnswer, error) {
	const op = "VideoService.SubmitAnswer"

	in.CandidateEmail = strings.TrimSpace(in.CandidateEmail)
	if in.Token == "" || in.QuestionID <= 0 || in.CandidateEmail == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "token, question_id and candidate_email are required", nil)
	}
	if len(in.Video) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "video file is required", nil)
	}
	if len(in.Video) > maxVideoBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "video file exceeds the 500MB limit", nil)
	}

	link, err := s.links.ValidateReadable(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(link.CandidateEmail, in.CandidateEmail) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email does not match the invitation email", nil)
	}

	if _, err := s.questions.GetByID(ctx, in.QuestionID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "question not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to verify question", err)
	}

	// Remember the answer being replaced so its blob can be reaped.
	prev, _ := s.answers.GetByTokenAndQuestion(ctx, in.Token, in.QuestionID)

	contentType := in.ContentType
	if contentType == "" {
		contentType = "video/webm"
	}
	objectName := fmt.Sprintf("interviews/%s/%d-%s-%d.webm",
		in.Token, in.QuestionID, utils.EmailSlug(in.CandidateEmail), time.Now().UnixNano())

	videoURL, uploadErr := s.store.Upload(ctx, objectName, contentType, bytes.NewReader(in.Video))
	if uploadErr != nil {
		if os.Getenv("APP_ENV") == "production" {
			return nil, utils.E(utils.CodeInternal, op, "failed to upload video", uploadErr)
		}
		// Outside production a missing bucket must not block the flow;
		// the recording is inlined as a data URI instead.
		s.log.WithError(uploadErr).WithField("object", objectName).
			Warn("storage upload failed; falling back to inline data uri")
		videoURL = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(in.Video)
		objectName = ""
	}

	meta, _ := json.Marshal(map[string]any{
		"content_type": contentType,
		"size_bytes":   len(in.Video),
		"filename":     in.Filename,
	})

	answer := &models.VideoAnswer{
		InterviewLinkToken: in.Token,
		QuestionID:         in.QuestionID,
		CandidateEmail:     in.CandidateEmail,
		VideoURL:           videoURL,
		ObjectName:         objectName,
		RecordingDuration:  in.RecordingDuration,
		Metadata:           datatypes.JSON(meta),
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save video answer", err)
	}

	// Best effort: an orphaned blob is preferable to a failed submission.
	if prev != nil && prev.ObjectName != "" && prev.ObjectName != answer.ObjectName {
		if derr := s.store.Delete(ctx, prev.ObjectName); derr != nil {
			s.log.WithError(derr).WithField("object", prev.ObjectName).
				Warn("failed to delete replaced recording")
		}
	}

	s.maybeEnqueueStitch(ctx, link)
	return answer, nil
}

// maybeEnqueueStitch bumps the per-token arrival counter and hands the
// interview to the stitch pipeline once every question has an answer.
// Re-submissions over-count, which only makes the trigger fire early;
// the worker re-checks the persisted answer count before stitching.
func (s *videoService) maybeEnqueueStitch(ctx context.Context, link *models.LinkDetail) {
	if s.counter == nil || s.stitcher == nil {
		return
	}
	n, err := s.counter.Incr(ctx, cache.AnswersKey(link.UniqueToken))
	if err != nil {
		s.log.WithError(err).Warn("answer counter unavailable; stitch trigger skipped")
		return
	}
	expected, err := s.questions.CountByRole(ctx, link.RoleID)
	if err != nil || expected == 0 {
		return
	}
	if n >= expected {
		if err := s.stitcher.Enqueue(ctx, link.UniqueToken); err != nil {
			s.log.WithError(err).WithField("token", link.UniqueToken).
				Warn("failed to enqueue stitch job")
		}
	}
}

func (s *videoService) ListAnswers(ctx context.Context, token string) (*models.LinkDetail, []models.VideoAnswerWithQuestion, error) {
	const op = "VideoService.ListAnswers"

	link, err := s.links.ValidateReadable(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.answers.ListByToken(ctx, token)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to list video answers", err)
	}
	return link, rows, nil
}

func (s *videoService) ListForInterviewer(ctx context.Context, interviewerID int64, roleID *int64, limit int) ([]models.ResponseSummary, error) {
	const op = "VideoService.ListForInterviewer"

	if interviewerID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interviewer_id is required", nil)
	}
	rows, err := s.answers.ListSummaries(ctx, interviewerID, roleID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list responses", err)
	}
	return rows, nil
}

func (s *videoService) GetForInterviewer(ctx context.Context, interviewerID int64, token string) (*models.LinkDetail, []models.VideoAnswerWithQuestion, error) {
	const op = "VideoService.GetForInterviewer"

	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if link.InterviewerID != 0 && link.InterviewerID != interviewerID {
		return nil, nil, utils.E(utils.CodeForbidden, op, "you do not have access to this interview", nil)
	}
	rows, err := s.answers.ListByToken(ctx, token)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to list video answers", err)
	}
	return link, rows, nil
}
