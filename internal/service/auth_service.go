package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/domain"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// SignInResult carries an issued token and the identity it speaks for.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  domain.Identity
}

// AuthService coordinates sign-in flows for every role.
type AuthService struct {
	companies *CompanyService
	tokenMgr  *auth.TokenManager
	hasher    *auth.Hasher
	operators []config.OperatorAccount
	ttl       time.Duration
	logger    *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Companies *CompanyService
	Tokens    *auth.TokenManager
	Hasher    *auth.Hasher
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		companies: deps.Companies,
		tokenMgr:  deps.Tokens,
		hasher:    deps.Hasher,
		operators: cfg.Operators,
		ttl:       cfg.AccessTokenTTL(),
		logger:    logger,
	}
}

// SignInCompany authenticates a company. Unknown email and wrong password
// both surface as InvalidCredential.
func (s *AuthService) SignInCompany(ctx context.Context, email, password string) (*domain.Company, *SignInResult, error) {
	company, err := s.companies.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, s.credentialError(err, "company")
	}
	result, err := s.issue(company.ID, domain.RoleCompany, company.ID)
	if err != nil {
		return nil, nil, err
	}
	return company, result, nil
}

// SignInAgent authenticates a roster member of companyID.
func (s *AuthService) SignInAgent(ctx context.Context, companyID, email, password string) (*domain.Agent, *SignInResult, error) {
	company, agent, err := s.companies.AuthenticateAgent(ctx, companyID, email, password)
	if err != nil {
		return nil, nil, s.credentialError(err, "agent")
	}
	result, err := s.issue(agent.ID, domain.RoleAgent, company.ID)
	if err != nil {
		return nil, nil, err
	}
	return agent, result, nil
}

// SignInOperator authenticates a configured admin or superuser account.
func (s *AuthService) SignInOperator(_ context.Context, email, password string) (*SignInResult, error) {
	email = normalizeEmail(email)
	for _, op := range s.operators {
		if op.Email != email {
			continue
		}
		role := domain.Role(op.Role)
		if !role.IsOperator() {
			s.logger.Error("operator account has non-operator role", zap.String("role", op.Role))
			return nil, apperrors.NewInvalidCredential()
		}
		ok, err := s.hasher.Verify(password, op.PasswordHash)
		if err != nil {
			s.logger.Error("operator password hash unreadable", zap.String("role", op.Role), zap.Error(err))
			return nil, apperrors.NewInvalidCredential()
		}
		if !ok {
			return nil, apperrors.NewInvalidCredential()
		}
		return s.issue(email, role, "")
	}
	s.hasher.Burn(password)
	return nil, apperrors.NewInvalidCredential()
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(subjectID string, role domain.Role, companyID string) (*SignInResult, error) {
	token, exp, err := s.tokenMgr.IssueToken(subjectID, role, companyID, s.ttl)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &SignInResult{
		Token:     token,
		ExpiresAt: exp,
		Identity: domain.Identity{
			SubjectID: subjectID,
			Role:      role,
			CompanyID: companyID,
			ExpiresAt: exp,
		},
	}, nil
}

// credentialError folds the internal not-found/wrong-password split into a
// single answer so sign-in cannot be used to probe for accounts.
func (s *AuthService) credentialError(err error, kind string) error {
	if apperrors.HasCode(err, apperrors.CodeNotFound) || apperrors.HasCode(err, apperrors.CodeInvalidCredential) {
		s.logger.Debug("sign-in rejected", zap.String("kind", kind), zap.Error(err))
		return apperrors.NewInvalidCredential()
	}
	return err
}
