package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
)

const DefaultLinkExpiryDays = 7

// Validation error messages surfaced to candidates.
const (
	msgLinkInvalid = "invalid interview link"
	msgLinkExpired = "this interview link has expired"
	msgLinkUsed    = "this interview link has already been used"
)

type LinkService interface {
	// Create issues a single-use token bound to (candidateEmail, interviewID).
	// Non-positive day counts fall back to the default expiry.
	Create(ctx context.Context, candidateEmail string, interviewID int64, expiresInDays int) (*models.InterviewLink, error)
	GetByToken(ctx context.Context, token string) (*models.LinkDetail, error)
	// Validate enforces the writable predicate: the link must exist, be
	// unexpired and unused.
	Validate(ctx context.Context, token string) (*models.LinkDetail, error)
	// ValidateReadable enforces only existence and expiry. The candidate
	// flow marks the link used before fetching questions and uploading
	// answers, so reads must tolerate used=true.
	ValidateReadable(ctx context.Context, token string) (*models.LinkDetail, error)
	MarkUsed(ctx context.Context, token string) (*models.InterviewLink, error)
	ListByInterview(ctx context.Context, interviewID int64) ([]models.LinkWithCandidate, error)
}

type linkService struct {
	links pgrepo.LinkRepository
	now   func() time.Time
}

func NewLinkService(links pgrepo.LinkRepository) LinkService {
	return &linkService{links: links, now: func() time.Time { return time.Now().UTC() }}
}

func newLinkToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *linkService) Create(ctx context.Context, candidateEmail string, interviewID int64, expiresInDays int) (*models.InterviewLink, error) {
	const op = "LinkService.Create"

	candidateEmail = strings.TrimSpace(candidateEmail)
	if candidateEmail == "" || interviewID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate_email and interview_id are required", nil)
	}
	if !utils.IsValidEmail(candidateEmail) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid email address format", nil)
	}
	if expiresInDays <= 0 {
		expiresInDays = DefaultLinkExpiryDays
	}

	token, err := newLinkToken()
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to generate token", err)
	}

	now := s.now()
	link := &models.InterviewLink{
		CandidateEmail: candidateEmail,
		InterviewID:    interviewID,
		UniqueToken:    token,
		ExpiresAt:      now.AddDate(0, 0, expiresInDays),
		CreatedAt:      now,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview link", err)
	}
	return link, nil
}

func (s *linkService) GetByToken(ctx context.Context, token string) (*models.LinkDetail, error) {
	const op = "LinkService.GetByToken"

	if token == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "token is required", nil)
	}
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, msgLinkInvalid, err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview link", err)
	}
	return link, nil
}

func (s *linkService) Validate(ctx context.Context, token string) (*models.LinkDetail, error) {
	const op = "LinkService.Validate"

	link, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	// Expiry wins over the used flag so a stale link reports the same
	// error whether or not it was ever opened.
	now := s.now()
	if link.IsExpired(now) {
		return nil, utils.E(utils.CodeInvalidArgument, op, msgLinkExpired, nil)
	}
	if !link.IsWritable(now) {
		return nil, utils.E(utils.CodeInvalidArgument, op, msgLinkUsed, nil)
	}
	return link, nil
}

func (s *linkService) ValidateReadable(ctx context.Context, token string) (*models.LinkDetail, error) {
	const op = "LinkService.ValidateReadable"

	link, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !link.IsReadable(s.now()) {
		return nil, utils.E(utils.CodeInvalidArgument, op, msgLinkExpired, nil)
	}
	return link, nil
}

func (s *linkService) MarkUsed(ctx context.Context, token string) (*models.InterviewLink, error) {
	const op = "LinkService.MarkUsed"

	if token == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "token is required", nil)
	}
	link, err := s.links.MarkUsed(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview link not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to mark link as used", err)
	}
	return link, nil
}

func (s *linkService) ListByInterview(ctx context.Context, interviewID int64) ([]models.LinkWithCandidate, error) {
	const op = "LinkService.ListByInterview"

	if interviewID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	rows, err := s.links.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interview links", err)
	}
	return rows, nil
}
