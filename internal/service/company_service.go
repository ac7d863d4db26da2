package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/events"
	"github.com/spec-kit/realty-service/internal/repository"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused
// instead of being silently truncated.
const maxPasswordBytes = 72

// AggregateReader serves rating aggregates for profile reads.
type AggregateReader interface {
	GetAggregate(ctx context.Context, rateeID string) (domain.Aggregate, error)
}

// CompanyService owns company identity and the embedded agent roster.
type CompanyService struct {
	companies  repository.CompanyRepository
	aggregates AggregateReader
	hasher     *auth.Hasher
	dispatcher events.Dispatcher
	retry      retrier
	logger     *zap.Logger
	now        func() time.Time
}

// CompanyDependencies bundles collaborators for the company service.
type CompanyDependencies struct {
	CompanyRepo repository.CompanyRepository
	Aggregates  AggregateReader
	Hasher      *auth.Hasher
	Dispatcher  events.Dispatcher
	Retry       config.RetryConfig
	Logger      *zap.Logger
}

// CreateCompanyInput describes a company registration.
type CreateCompanyInput struct {
	Name        string
	Email       string
	Password    string
	Phone       string
	Address     string
	Description string
	Website     string
	AvatarURL   string
	BannerURL   string
}

// UpdateCompanyInput is a partial update. Nil fields are left untouched.
type UpdateCompanyInput struct {
	Name        *string
	Email       *string
	Password    *string
	Phone       *string
	Address     *string
	Description *string
	Website     *string
	AvatarURL   *string
	BannerURL   *string
}

// AddAgentInput describes a new roster member.
type AddAgentInput struct {
	Name      string
	Email     string
	Password  string
	Contact   string
	LicenseID string
}

// CompanyProfile is a company together with its rating aggregate.
type CompanyProfile struct {
	Company   *domain.Company
	Aggregate domain.Aggregate
}

// AgentProfile is a roster member together with its rating aggregate.
type AgentProfile struct {
	CompanyID string
	Agent     *domain.Agent
	Aggregate domain.Aggregate
}

// NewCompanyService constructs the service.
func NewCompanyService(deps CompanyDependencies) *CompanyService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{
		companies:  deps.CompanyRepo,
		aggregates: deps.Aggregates,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		retry:      newRetrier(deps.Retry),
		logger:     logger,
		now:        time.Now,
	}
}

// CreateCompany registers a new tenant with an empty roster.
func (s *CompanyService) CreateCompany(ctx context.Context, input CreateCompanyInput) (*domain.Company, error) {
	name := normalizeName(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewInvalidInput("company name is required", map[string]any{"field": "companyName"})
	}
	if email == "" {
		return nil, apperrors.NewInvalidInput("email is required", map[string]any{"field": "email"})
	}
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	company := &domain.Company{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		Description:  strings.TrimSpace(input.Description),
		Website:      strings.TrimSpace(input.Website),
		AvatarURL:    strings.TrimSpace(input.AvatarURL),
		BannerURL:    strings.TrimSpace(input.BannerURL),
		Agents:       []domain.Agent{},
	}
	company.AvatarManaged = company.AvatarURL != ""
	company.BannerManaged = company.BannerURL != ""

	if err := s.retry.do(ctx, func(ctx context.Context) error {
		return s.companies.Create(ctx, company)
	}); err != nil {
		return nil, storeError(err, "company")
	}

	s.publish(ctx, events.NewEvent(events.EventCompanyCreated, company.ID,
		events.Actor{SubjectID: company.ID, Role: domain.RoleCompany},
		events.CompanyPayload{Name: company.Name, Email: company.Email}))
	return company, nil
}

// Authenticate checks company credentials. Unknown email yields NotFound and
// a wrong password InvalidCredential; callers decide how much to reveal.
func (s *CompanyService) Authenticate(ctx context.Context, email, password string) (*domain.Company, error) {
	var company *domain.Company
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.companies.GetByEmail(ctx, normalizeEmail(email))
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		s.hasher.Burn(password)
		return nil, apperrors.NewNotFound("company", nil)
	}
	if err != nil {
		return nil, storeError(err, "company")
	}
	if err := s.checkPassword(password, company.PasswordHash, company.ID); err != nil {
		return nil, err
	}
	return company, nil
}

// AuthenticateAgent checks the credentials of a roster member. Inactive
// agents are refused with InvalidCredential.
func (s *CompanyService) AuthenticateAgent(ctx context.Context, companyID, email, password string) (*domain.Company, *domain.Agent, error) {
	company, err := s.loadCompany(ctx, companyID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.hasher.Burn(password)
		}
		return nil, nil, err
	}
	agent, ok := company.FindAgentByEmail(normalizeEmail(email))
	if !ok {
		s.hasher.Burn(password)
		return nil, nil, apperrors.NewNotFound("agent", nil)
	}
	if err := s.checkPassword(password, agent.PasswordHash, agent.ID); err != nil {
		return nil, nil, err
	}
	if agent.Status == domain.AgentStatusInactive {
		return nil, nil, apperrors.NewInvalidCredential()
	}
	return company, agent, nil
}

// GetCompany returns the company document.
func (s *CompanyService) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	return s.loadCompany(ctx, id)
}

// GetCompanyProfile returns the company with its rating aggregate.
func (s *CompanyService) GetCompanyProfile(ctx context.Context, id string) (*CompanyProfile, error) {
	company, err := s.loadCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	agg, err := s.aggregate(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	return &CompanyProfile{Company: company, Aggregate: agg}, nil
}

// GetAgentProfile returns one roster member with its rating aggregate.
func (s *CompanyService) GetAgentProfile(ctx context.Context, companyID, agentID string) (*AgentProfile, error) {
	company, err := s.loadCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	agent, ok := company.FindAgent(agentID)
	if !ok {
		return nil, apperrors.NewNotFound("agent", nil)
	}
	agg, err := s.aggregate(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	return &AgentProfile{CompanyID: company.ID, Agent: agent, Aggregate: agg}, nil
}

// UpdateCompany applies a partial update. Supplying an avatar or banner URL
// marks the asset as managed by the service.
func (s *CompanyService) UpdateCompany(ctx context.Context, actor *domain.Identity, id string, input UpdateCompanyInput) (*domain.Company, error) {
	patch := domain.CompanyPatch{
		Phone:       trimmed(input.Phone),
		Address:     trimmed(input.Address),
		Description: trimmed(input.Description),
		Website:     trimmed(input.Website),
		AvatarURL:   trimmed(input.AvatarURL),
		BannerURL:   trimmed(input.BannerURL),
	}
	if input.Name != nil {
		name := normalizeName(*input.Name)
		if name == "" {
			return nil, apperrors.NewInvalidInput("company name must not be empty", map[string]any{"field": "companyName"})
		}
		patch.Name = &name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, apperrors.NewInvalidInput("email must not be empty", map[string]any{"field": "email"})
		}
		patch.Email = &email
	}
	if input.Password != nil {
		hash, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	var company *domain.Company
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.companies.Update(ctx, id, patch)
		return err
	}); err != nil {
		return nil, storeError(err, "company")
	}

	if !patch.Empty() {
		s.publish(ctx, events.NewEvent(events.EventCompanyUpdated, company.ID, eventActor(actor),
			events.CompanyPayload{Name: company.Name, Email: company.Email}))
	}
	return company, nil
}

// DeleteCompany removes the company and, with it, its whole roster.
func (s *CompanyService) DeleteCompany(ctx context.Context, actor *domain.Identity, id string) error {
	company, err := s.loadCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		return s.companies.Delete(ctx, id)
	}); err != nil {
		return storeError(err, "company")
	}

	payload := events.CompanyPayload{Name: company.Name, Email: company.Email}
	if company.AvatarManaged {
		payload.ManagedAssets = append(payload.ManagedAssets, company.AvatarURL)
	}
	if company.BannerManaged {
		payload.ManagedAssets = append(payload.ManagedAssets, company.BannerURL)
	}
	s.publish(ctx, events.NewEvent(events.EventCompanyDeleted, id, eventActor(actor), payload))
	return nil
}

// AddAgent appends a pending agent to the roster. The email must be unused
// within this company; other companies may hold the same address.
func (s *CompanyService) AddAgent(ctx context.Context, actor *domain.Identity, companyID string, input AddAgentInput) (*domain.Agent, error) {
	name := normalizeName(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewInvalidInput("agent name is required", map[string]any{"field": "name"})
	}
	if email == "" {
		return nil, apperrors.NewInvalidInput("email is required", map[string]any{"field": "email"})
	}
	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	agent := &domain.Agent{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Contact:      strings.TrimSpace(input.Contact),
		LicenseID:    strings.TrimSpace(input.LicenseID),
		Status:       domain.AgentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.retry.do(ctx, func(ctx context.Context) error {
		return s.companies.AddAgent(ctx, companyID, agent)
	}); err != nil {
		if _, dup := repository.IsDuplicate(err); dup {
			return nil, apperrors.NewConflict("agent email already in roster", map[string]any{"field": "email"})
		}
		return nil, storeError(err, "company")
	}

	s.publish(ctx, events.NewEvent(events.EventAgentAdded, companyID, eventActor(actor),
		events.AgentPayload{AgentID: agent.ID, Name: agent.Name, Email: agent.Email, Status: agent.Status}))
	return agent, nil
}

// RemoveAgent deletes a roster member by id.
func (s *CompanyService) RemoveAgent(ctx context.Context, actor *domain.Identity, companyID, agentID string) error {
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		return s.companies.RemoveAgent(ctx, companyID, agentID)
	}); err != nil {
		return storeError(err, "company")
	}
	s.publish(ctx, events.NewEvent(events.EventAgentRemoved, companyID, eventActor(actor),
		events.AgentPayload{AgentID: agentID}))
	return nil
}

// SetAgentStatus moves a roster member to status.
func (s *CompanyService) SetAgentStatus(ctx context.Context, actor *domain.Identity, companyID, agentID string, status domain.AgentStatus) (*domain.Agent, error) {
	if !status.Valid() {
		return nil, apperrors.NewInvalidInput("unknown agent status", map[string]any{"field": "status", "value": string(status)})
	}

	var agent *domain.Agent
	if err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		agent, err = s.companies.SetAgentStatus(ctx, companyID, agentID, status, s.now().UTC())
		return err
	}); err != nil {
		return nil, storeError(err, "company")
	}

	s.publish(ctx, events.NewEvent(events.EventAgentStatusChanged, companyID, eventActor(actor),
		events.AgentPayload{AgentID: agent.ID, Name: agent.Name, Email: agent.Email, Status: agent.Status}))
	return agent, nil
}

// Ping checks the datastore.
func (s *CompanyService) Ping(ctx context.Context) error {
	return s.companies.Ping(ctx)
}

func (s *CompanyService) loadCompany(ctx context.Context, id string) (*domain.Company, error) {
	var company *domain.Company
	err := s.retry.do(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.companies.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeError(err, "company")
	}
	return company, nil
}

func (s *CompanyService) aggregate(ctx context.Context, rateeID string) (domain.Aggregate, error) {
	if s.aggregates == nil {
		return domain.NoRating(rateeID), nil
	}
	return s.aggregates.GetAggregate(ctx, rateeID)
}

func (s *CompanyService) hashPassword(password string) (string, error) {
	if password == "" {
		return "", apperrors.NewInvalidInput("password is required", map[string]any{"field": "password"})
	}
	if len(password) > maxPasswordBytes {
		return "", apperrors.NewInvalidInput("password exceeds 72 bytes", map[string]any{"field": "password"})
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func (s *CompanyService) checkPassword(password, hash, subjectID string) error {
	ok, err := s.hasher.Verify(password, hash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", zap.String("subject_id", subjectID), zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	if !ok {
		return apperrors.NewInvalidCredential()
	}
	return nil
}

func (s *CompanyService) publish(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func eventActor(actor *domain.Identity) events.Actor {
	if actor == nil {
		return events.Actor{}
	}
	return events.Actor{SubjectID: actor.SubjectID, Role: actor.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
