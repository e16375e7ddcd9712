package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirevid/hirevid/internal/email"
	"github.com/hirevid/hirevid/internal/media"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/storage"
	"github.com/hirevid/hirevid/internal/utils"
	"github.com/sirupsen/logrus"
)

const stitchedURLTTL = 365 * 24 * time.Hour

type StitchResult struct {
	URL       string `json:"stitched_video_url"`
	FromCache bool   `json:"from_cache"`
}

// StitchService assembles a candidate's answers into one overlay-annotated
// video. The result URL is cached on the link row, so each interview is
// stitched at most once.
type StitchService interface {
	Stitch(ctx context.Context, token string) (*StitchResult, error)
}

type stitchStore interface {
	storage.Uploader
	storage.Downloader
	storage.Signer
}

type stitchService struct {
	links      pgrepo.LinkRepository
	answers    pgrepo.VideoAnswerRepository
	store      stitchStore
	transcoder media.Transcoder
	sender     email.Sender
	log        *logrus.Logger
}

func NewStitchService(
	links pgrepo.LinkRepository,
	answers pgrepo.VideoAnswerRepository,
	store stitchStore,
	transcoder media.Transcoder,
	sender email.Sender,
	log *logrus.Logger,
) StitchService {
	return &stitchService{
		links:      links,
		answers:    answers,
		store:      store,
		transcoder: transcoder,
		sender:     sender,
		log:        log,
	}
}

func (s *stitchService) Stitch(ctx context.Context, token string) (*StitchResult, error) {
	const op = "StitchService.Stitch"

	if token == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "token is required", nil)
	}

	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "invalid interview link", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview link", err)
	}
	if link.StitchedVideoURL != nil && *link.StitchedVideoURL != "" {
		return &StitchResult{URL: *link.StitchedVideoURL, FromCache: true}, nil
	}

	answers, err := s.answers.ListByToken(ctx, token)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list video answers", err)
	}
	if len(answers) == 0 {
		return nil, utils.E(utils.CodeNotFound, op, "no video responses found for this interview", nil)
	}

	if err := s.links.SetProcessingStatus(ctx, token, models.ProcessingRunning); err != nil {
		s.log.WithError(err).WithField("token", token).Warn("failed to record processing status")
	}

	url, err := s.stitch(ctx, token, answers)
	if err != nil {
		if serr := s.links.SetProcessingStatus(ctx, token, models.ProcessingFailed); serr != nil {
			s.log.WithError(serr).WithField("token", token).Warn("failed to record failed status")
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to stitch interview video", err)
	}

	now := time.Now().UTC()
	if err := s.links.SetStitched(ctx, token, url, now); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save stitched video url", err)
	}

	s.notifyCompletion(ctx, link, url)
	return &StitchResult{URL: url}, nil
}

func (s *stitchService) stitch(ctx context.Context, token string, answers []models.VideoAnswerWithQuestion) (string, error) {
	workDir := filepath.Join(os.TempDir(), "stitch-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Fetch each answer, burn in the question overlay, then concat.
	overlaid := make([]string, 0, len(answers))
	for i, a := range answers {
		src := filepath.Join(workDir, fmt.Sprintf("answer-%d.webm", i))
		if err := s.fetchAnswer(ctx, &a.VideoAnswer, src); err != nil {
			return "", fmt.Errorf("fetch answer %d: %w", a.QuestionID, err)
		}
		out := filepath.Join(workDir, fmt.Sprintf("overlaid-%d.mp4", i))
		if err := s.transcoder.Overlay(ctx, src, out, a.QuestionText, i+1); err != nil {
			return "", fmt.Errorf("overlay answer %d: %w", a.QuestionID, err)
		}
		overlaid = append(overlaid, out)
	}

	finalPath := filepath.Join(workDir, "final_interview.mp4")
	if err := s.transcoder.Concat(ctx, overlaid, finalPath); err != nil {
		return "", fmt.Errorf("concat: %w", err)
	}

	f, err := os.Open(finalPath)
	if err != nil {
		return "", fmt.Errorf("open final video: %w", err)
	}
	defer f.Close()

	objectName := fmt.Sprintf("interviews/%s/final_interview.mp4", token)
	if _, err := s.store.Upload(ctx, objectName, "video/mp4", f); err != nil {
		return "", fmt.Errorf("upload final video: %w", err)
	}

	url, err := s.store.SignedGetURL(ctx, objectName, stitchedURLTTL)
	if err != nil {
		return "", fmt.Errorf("sign final video url: %w", err)
	}
	return url, nil
}

// fetchAnswer materializes one answer as a local file. Answers stored as
// inline data URIs (non-production uploads) are decoded in place instead
// of fetched from the bucket.
func (s *stitchService) fetchAnswer(ctx context.Context, a *models.VideoAnswer, destPath string) error {
	if strings.HasPrefix(a.VideoURL, "data:") {
		_, payload, found := strings.Cut(a.VideoURL, ";base64,")
		if !found {
			return fmt.Errorf("unsupported data uri for answer %d", a.ID)
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return fmt.Errorf("decode data uri: %w", err)
		}
		return os.WriteFile(destPath, raw, 0o644)
	}

	objectName := a.ObjectName
	if objectName == "" {
		objectName = storage.ObjectNameFromURL(a.VideoURL)
	}
	if objectName == "" {
		return fmt.Errorf("answer %d has no resolvable object name", a.ID)
	}
	return s.store.Download(ctx, objectName, destPath)
}

func (s *stitchService) notifyCompletion(ctx context.Context, link *models.LinkDetail, url string) {
	if s.sender == nil || link.CandidateEmail == "" {
		return
	}
	subject := "Your Interview Submission is Complete"
	body := fmt.Sprintf(`Hello,

Thank you for completing your pre-recorded interview%s.

Your responses have been received and compiled. You can review your interview here:

%s

Best regards,
Interview Team`, roleSuffix(link.RoleTitle), url)
	if err := s.sender.Send(ctx, link.CandidateEmail, body, subject); err != nil {
		s.log.WithError(err).WithField("token", link.UniqueToken).
			Warn("completion email failed")
	}
}

func roleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return " for the " + title + " role"
}
