// Package memory holds in-process implementations of the repository
// contracts. They are used when no Postgres DSN is configured and by tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/repository"
)

// companyRecord guards one company document. Roster mutations hold mu, which
// makes every company its own serialization boundary.
type companyRecord struct {
	mu      sync.Mutex
	company domain.Company
	deleted bool
}

// CompanyStore is a CompanyRepository backed by process memory.
type CompanyStore struct {
	mu      sync.RWMutex
	records map[string]*companyRecord
	names   map[string]string
	emails  map[string]string
	now     func() time.Time
}

// NewCompanyStore creates an empty store.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		records: make(map[string]*companyRecord),
		names:   make(map[string]string),
		emails:  make(map[string]string),
		now:     time.Now,
	}
}

var _ repository.CompanyRepository = (*CompanyStore)(nil)

func (s *CompanyStore) Create(_ context.Context, company *domain.Company) error {
	nameKey := strings.ToLower(company.Name)
	emailKey := strings.ToLower(company.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.names[nameKey]; taken {
		return &repository.DuplicateError{Field: "companyName"}
	}
	if _, taken := s.emails[emailKey]; taken {
		return &repository.DuplicateError{Field: "email"}
	}

	now := s.now().UTC()
	company.ID = uuid.NewString()
	company.CreatedAt = now
	company.UpdatedAt = now
	if company.Agents == nil {
		company.Agents = []domain.Agent{}
	}

	s.records[company.ID] = &companyRecord{company: cloneCompany(*company)}
	s.names[nameKey] = company.ID
	s.emails[emailKey] = company.ID
	return nil
}

func (s *CompanyStore) GetByID(_ context.Context, id string) (*domain.Company, error) {
	rec, ok := s.record(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, repository.ErrNotFound
	}
	company := cloneCompany(rec.company)
	return &company, nil
}

func (s *CompanyStore) GetByEmail(ctx context.Context, email string) (*domain.Company, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Update takes the index lock first so that renames cannot race each other
// into a uniqueness violation.
func (s *CompanyStore) Update(_ context.Context, id string, patch domain.CompanyPatch) (*domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	c := &rec.company
	if patch.Name != nil {
		key := strings.ToLower(*patch.Name)
		if owner, taken := s.names[key]; taken && owner != id {
			return nil, &repository.DuplicateError{Field: "companyName"}
		}
	}
	if patch.Email != nil {
		key := strings.ToLower(*patch.Email)
		if owner, taken := s.emails[key]; taken && owner != id {
			return nil, &repository.DuplicateError{Field: "email"}
		}
	}

	if patch.Name != nil {
		delete(s.names, strings.ToLower(c.Name))
		c.Name = *patch.Name
		s.names[strings.ToLower(c.Name)] = id
	}
	if patch.Email != nil {
		delete(s.emails, strings.ToLower(c.Email))
		c.Email = *patch.Email
		s.emails[strings.ToLower(c.Email)] = id
	}
	if patch.PasswordHash != nil {
		c.PasswordHash = *patch.PasswordHash
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Website != nil {
		c.Website = *patch.Website
	}
	if patch.AvatarURL != nil {
		c.AvatarURL = *patch.AvatarURL
		c.AvatarManaged = true
	}
	if patch.BannerURL != nil {
		c.BannerURL = *patch.BannerURL
		c.BannerManaged = true
	}
	if !patch.Empty() {
		c.UpdatedAt = s.now().UTC()
	}

	out := cloneCompany(*c)
	return &out, nil
}

func (s *CompanyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return repository.ErrNotFound
	}
	delete(s.records, id)
	rec.mu.Lock()
	delete(s.names, strings.ToLower(rec.company.Name))
	delete(s.emails, strings.ToLower(rec.company.Email))
	rec.deleted = true
	rec.mu.Unlock()
	s.mu.Unlock()
	return nil
}

func (s *CompanyStore) AddAgent(_ context.Context, companyID string, agent *domain.Agent) error {
	rec, ok := s.record(companyID)
	if !ok {
		return repository.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.deleted {
		return repository.ErrNotFound
	}
	if _, exists := rec.company.FindAgentByEmail(agent.Email); exists {
		return &repository.DuplicateError{Field: "email"}
	}
	rec.company.Agents = append(rec.company.Agents, *agent)
	rec.company.UpdatedAt = s.now().UTC()
	return nil
}

func (s *CompanyStore) RemoveAgent(_ context.Context, companyID, agentID string) error {
	rec, ok := s.record(companyID)
	if !ok {
		return repository.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.deleted {
		return repository.ErrNotFound
	}
	agents := rec.company.Agents
	for i := range agents {
		if agents[i].ID != agentID {
			continue
		}
		// Build a fresh slice so previously returned clones never observe the removal.
		next := make([]domain.Agent, 0, len(agents)-1)
		next = append(next, agents[:i]...)
		next = append(next, agents[i+1:]...)
		rec.company.Agents = next
		rec.company.UpdatedAt = s.now().UTC()
		return nil
	}
	return repository.ErrAgentNotFound
}

func (s *CompanyStore) SetAgentStatus(_ context.Context, companyID, agentID string, status domain.AgentStatus, at time.Time) (*domain.Agent, error) {
	rec, ok := s.record(companyID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.deleted {
		return nil, repository.ErrNotFound
	}
	agent, ok := rec.company.FindAgent(agentID)
	if !ok {
		return nil, repository.ErrAgentNotFound
	}
	agent.Status = status
	agent.UpdatedAt = at.UTC()
	rec.company.UpdatedAt = s.now().UTC()

	out := *agent
	return &out, nil
}

func (s *CompanyStore) SubjectExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	records := make([]*companyRecord, 0, len(s.records))
	if _, ok := s.records[id]; ok {
		s.mu.RUnlock()
		return true, nil
	}
	for _, rec := range s.records {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	for _, rec := range records {
		rec.mu.Lock()
		_, found := rec.company.FindAgent(id)
		deleted := rec.deleted
		rec.mu.Unlock()
		if found && !deleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *CompanyStore) Ping(context.Context) error {
	return nil
}

func (s *CompanyStore) record(id string) (*companyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

func cloneCompany(c domain.Company) domain.Company {
	agents := make([]domain.Agent, len(c.Agents))
	copy(agents, c.Agents)
	c.Agents = agents
	return c
}
