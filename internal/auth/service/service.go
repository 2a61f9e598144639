package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm_backend/internal/auth/password"
	"crm_backend/internal/auth/repository"
	"crm_backend/internal/events"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountDisabled = errors.New("account disabled")
var ErrInvalidRole = errors.New("invalid role")

const accessTokenType = "access"

var allowedRoles = map[string]bool{
	repository.RoleAdmin:  true,
	repository.RoleAgent:  true,
	repository.RoleClient: true,
}

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

func (s *Service) Register(ctx context.Context, email, plainPassword, fullName, role string) (repository.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = repository.RoleAgent
	}
	if !allowedRoles[role] {
		return repository.User{}, ErrInvalidRole
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return repository.User{}, err
	}

	user, err := s.repo.CreateUser(ctx, strings.ToLower(strings.TrimSpace(email)), hash, fullName, role)
	if err != nil {
		return repository.User{}, err
	}

	s.log.AuthEvent("register", user.Email, true, "")
	s.bus.Publish(ctx, events.UserSignedUp{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
	})

	return user, nil
}

func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, repository.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return "", repository.User{}, ErrInvalidCredentials
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return "", repository.User{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.log.AuthEvent("login", email, false, "account disabled")
		return "", repository.User{}, ErrAccountDisabled
	}

	token, err := s.signJWT(user.ID, user.Role)
	if err != nil {
		return "", repository.User{}, err
	}

	s.log.AuthEvent("login", email, true, "")
	return token, user, nil
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]repository.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return s.repo.SetUserActive(ctx, userID, active)
}

func (s *Service) signJWT(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": accessTokenType,
		"role": role,
		"exp":  now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTSecret()))
}
