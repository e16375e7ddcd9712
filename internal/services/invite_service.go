package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hirevid/hirevid/internal/email"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
	"github.com/sirupsen/logrus"
)

// Expiry is currently pinned to the default for every invitation; the
// request value is validated (1..30) but not honored.
const (
	minExpiryDays = 1
	maxExpiryDays = 30
)

type InviteResult struct {
	Link       *models.InterviewLink `json:"link"`
	URL        string                `json:"interview_url"`
	Candidate  *models.Candidate     `json:"candidate"`
	EmailSent  bool                  `json:"email_sent"`
	EmailError string                `json:"email_error,omitempty"`
}

// InviteService composes link issuance, candidate registration and the
// notification send. The link is the durable artifact: a failed email
// never rolls it back.
type InviteService interface {
	Invite(ctx context.Context, roleID int64, candidateEmail string, expiresInDays *int) (*InviteResult, error)
	// ValidateCandidate checks the link is still writable and the supplied
	// identity matches the invitation. No state change.
	ValidateCandidate(ctx context.Context, token, name, candidateEmail string) (*models.LinkDetail, error)
	// MarkUsed consumes the link and flips the candidate's submitted flag.
	MarkUsed(ctx context.Context, token string) (*models.InterviewLink, error)
	ListLinksByRole(ctx context.Context, roleID int64) ([]models.LinkWithCandidate, error)
}

type inviteService struct {
	roles       pgrepo.RoleRepository
	interviews  pgrepo.InterviewRepository
	candidates  pgrepo.CandidateRepository
	links       LinkService
	sender      email.Sender
	log         *logrus.Logger
	frontendURL string
}

func NewInviteService(
	roles pgrepo.RoleRepository,
	interviews pgrepo.InterviewRepository,
	candidates pgrepo.CandidateRepository,
	links LinkService,
	sender email.Sender,
	log *logrus.Logger,
	frontendURL string,
) InviteService {
	return &inviteService{
		roles:       roles,
		interviews:  interviews,
		candidates:  candidates,
		links:       links,
		sender:      sender,
		log:         log,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

func (s *inviteService) Invite(ctx context.Context, roleID int64, candidateEmail string, expiresInDays *int) (*InviteResult, error) {
	const op = "InviteService.Invite"

	candidateEmail = strings.TrimSpace(candidateEmail)
	if roleID <= 0 || candidateEmail == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role_id and candidate_email are required", nil)
	}
	if !utils.IsValidEmail(candidateEmail) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid email address format", nil)
	}
	if expiresInDays != nil && (*expiresInDays < minExpiryDays || *expiresInDays > maxExpiryDays) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "expires_in_days must be between 1 and 30", nil)
	}

	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "role not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to verify role", err)
	}

	interview, err := s.interviews.GetOrCreate(ctx, roleID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to get or create interview", err)
	}

	link, err := s.links.Create(ctx, candidateEmail, interview.ID, DefaultLinkExpiryDays)
	if err != nil {
		return nil, err
	}

	candidate := &models.Candidate{
		RoleID: roleID,
		Name:   utils.EmailLocalPart(candidateEmail),
		Email:  candidateEmail,
	}
	if err := s.candidates.Create(ctx, candidate); err != nil {
		if !errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeInternal, op, "failed to create candidate", err)
		}
		// Repeat invite for the same (role, email): reuse the existing row.
		candidate, err = s.candidates.GetByEmailAndRole(ctx, roleID, candidateEmail)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to look up existing candidate", err)
		}
	}

	result := &InviteResult{
		Link:      link,
		URL:       fmt.Sprintf("%s/interview/%s", s.frontendURL, link.UniqueToken),
		Candidate: candidate,
	}

	subject := "Interview Invitation - Pre-recorded Interview"
	body := fmt.Sprintf(`Hello,

You have been invited to participate in a pre-recorded interview.

Interview Link: %s

This link will expire on: %s

Please click the link above to access your interview. You will be asked to provide your name and email before starting.

Best regards,
Interview Team`, result.URL, link.ExpiresAt.Format("January 2, 2006 15:04"))

	if err := s.sender.Send(ctx, candidateEmail, body, subject); err != nil {
		s.log.WithError(err).WithField("candidate_email", candidateEmail).
			Warn("invitation email failed; link retained")
		result.EmailError = err.Error()
		return result, nil
	}
	result.EmailSent = true
	return result, nil
}

func (s *inviteService) ListLinksByRole(ctx context.Context, roleID int64) ([]models.LinkWithCandidate, error) {
	const op = "InviteService.ListLinksByRole"

	if roleID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role_id is required", nil)
	}
	interview, err := s.interviews.GetByRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			// No interview yet means no invitations were ever sent.
			return []models.LinkWithCandidate{}, nil
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	return s.links.ListByInterview(ctx, interview.ID)
}

func (s *inviteService) ValidateCandidate(ctx context.Context, token, name, candidateEmail string) (*models.LinkDetail, error) {
	const op = "InviteService.ValidateCandidate"

	name = strings.TrimSpace(name)
	candidateEmail = strings.TrimSpace(candidateEmail)
	if name == "" || candidateEmail == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "name and email are required", nil)
	}
	if !utils.IsValidEmail(candidateEmail) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid email address format", nil)
	}

	link, err := s.links.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(link.CandidateEmail, candidateEmail) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email does not match the invitation email", nil)
	}
	return link, nil
}

func (s *inviteService) MarkUsed(ctx context.Context, token string) (*models.InterviewLink, error) {
	link, err := s.links.MarkUsed(ctx, token)
	if err != nil {
		return nil, err
	}

	// Submitted tracks that the candidate entered the interview, not that
	// answers arrived. Flipping it is best-effort.
	if detail, derr := s.links.GetByToken(ctx, token); derr == nil && detail.RoleID > 0 {
		if cand, cerr := s.candidates.GetByEmailAndRole(ctx, detail.RoleID, detail.CandidateEmail); cerr == nil {
			if serr := s.candidates.SetSubmitted(ctx, cand.ID, true); serr != nil {
				s.log.WithError(serr).WithField("token", token).Warn("failed to flip candidate submitted flag")
			}
		}
	}
	return link, nil
}
