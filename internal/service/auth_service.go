package service

import (
	"context"
	"time"

	"chat-handoff-be/internal/config"
	"chat-handoff-be/internal/dto"
	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Login(ctx context.Context, request *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        config.AuthConfig
	logger     logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, cfg config.AuthConfig, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		cfg:        cfg,
		logger:     log,
	}
}

// Login authenticates an operator and counts as a liveness signal: an
// offline agent comes back available, same as a heartbeat would do.
func (s *authService) Login(ctx context.Context, request *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	agent, err := uow.AgentRepository().FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(request.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := uow.AgentRepository().Heartbeat(ctx, agent.TenantId, agent.Id, now); err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{
		"agent_id":  agent.Id.String(),
		"tenant_id": agent.TenantId.String(),
		"exp":       now.Add(s.cfg.TokenTTL).Unix(),
		"iat":       now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JwtSecret))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Auth", "Agent logged in", map[string]interface{}{
		"agent_id":  agent.Id,
		"tenant_id": agent.TenantId,
	})

	return &dto.LoginResponse{
		Token: signed,
		Agent: dto.AgentProfileResponse{
			Id:              agent.Id,
			Name:            agent.Name,
			Email:           agent.Email,
			Status:          agent.Status,
			ActiveChatCount: agent.ActiveChatCount,
			MaxChatCount:    agent.MaxChatCount,
		},
	}, nil
}
