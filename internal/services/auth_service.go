package services

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/utils"
)

const tokenTTL = 24 * time.Hour

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.Interviewer, string, error)
	Login(ctx context.Context, email, password string) (*models.Interviewer, string, error)
	// UpsertOAuth implements the idempotent OAuth identity flow: first
	// login creates the interviewer, later logins backfill the name.
	UpsertOAuth(ctx context.Context, email, name string) (*models.Interviewer, string, error)
	GetByEmail(ctx context.Context, email string) (*models.Interviewer, error)
	GetByID(ctx context.Context, id int64) (*models.Interviewer, error)
}

type authService struct {
	interviewers pgrepo.InterviewerRepository
	secret       []byte
}

func NewAuthService(interviewers pgrepo.InterviewerRepository) AuthService {
	return &authService{
		interviewers: interviewers,
		secret:       []byte(os.Getenv("JWT_SECRET")),
	}
}

type InterviewerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *authService) signToken(in *models.Interviewer) (string, error) {
	now := time.Now().UTC()
	claims := InterviewerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(in.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Email: in.Email,
		Name:  in.Name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*models.Interviewer, string, error) {
	const op = "AuthService.Register"

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "name, email and password are required", nil)
	}
	if !utils.IsValidEmail(email) {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "Invalid email address format", nil)
	}
	if len(password) < 6 {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "password must be at least 6 characters", nil)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	in := &models.Interviewer{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.interviewers.Create(ctx, in); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, "", utils.E(utils.CodeConflict, op, "an account with this email already exists", err)
		}
		return nil, "", utils.E(utils.CodeInternal, op, "failed to create account", err)
	}

	token, err := s.signToken(in)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return in, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.Interviewer, string, error) {
	const op = "AuthService.Login"

	if email == "" || password == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "email and password are required", nil)
	}

	in, err := s.interviewers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, "", utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return nil, "", utils.E(utils.CodeInternal, op, "failed to look up account", err)
	}
	if in.PasswordHash == nil || utils.CheckPassword(*in.PasswordHash, password) != nil {
		return nil, "", utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
	}

	token, err := s.signToken(in)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return in, token, nil
}

func (s *authService) UpsertOAuth(ctx context.Context, email, name string) (*models.Interviewer, string, error) {
	const op = "AuthService.UpsertOAuth"

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "email is required", nil)
	}
	if !utils.IsValidEmail(email) {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "Invalid email address format", nil)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = utils.EmailLocalPart(email)
	}

	in := &models.Interviewer{
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.interviewers.Upsert(ctx, in); err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to upsert interviewer", err)
	}

	token, err := s.signToken(in)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return in, token, nil
}

func (s *authService) GetByEmail(ctx context.Context, email string) (*models.Interviewer, error) {
	const op = "AuthService.GetByEmail"

	in, err := s.interviewers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interviewer not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interviewer", err)
	}
	return in, nil
}

func (s *authService) GetByID(ctx context.Context, id int64) (*models.Interviewer, error) {
	const op = "AuthService.GetByID"

	in, err := s.interviewers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interviewer not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interviewer", err)
	}
	return in, nil
}
