package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/repository"
)

func newCompany(t *testing.T, s *CompanyStore, name, email string) *domain.Company {
	t.Helper()
	c := &domain.Company{Name: name, Email: email, PasswordHash: "hash"}
	require.NoError(t, s.Create(context.Background(), c))
	return c
}

func newAgent(email string) *domain.Agent {
	return &domain.Agent{ID: uuid.NewString(), Name: "agent", Email: email, Status: domain.AgentStatusPending}
}

func TestCompanyStore_CreateUniqueness(t *testing.T) {
	s := NewCompanyStore()
	newCompany(t, s, "Acme", "a@x.com")

	err := s.Create(context.Background(), &domain.Company{Name: "ACME", Email: "other@x.com"})
	field, ok := repository.IsDuplicate(err)
	require.True(t, ok)
	assert.Equal(t, "companyName", field)

	err = s.Create(context.Background(), &domain.Company{Name: "Other", Email: "A@X.com"})
	field, ok = repository.IsDuplicate(err)
	require.True(t, ok)
	assert.Equal(t, "email", field)

	require.NoError(t, s.Create(context.Background(), &domain.Company{Name: "Beta", Email: "b@x.com"}))
}

func TestCompanyStore_ConcurrentAddAgentSameEmail(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.AddAgent(context.Background(), c.ID, newAgent("jo@x.com"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if _, dup := repository.IsDuplicate(err); dup {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)

	got, err := s.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Agents, 1)
}

func TestCompanyStore_ConcurrentAddDistinctEmails(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AddAgent(context.Background(), c.ID, newAgent(fmt.Sprintf("agent%d@x.com", i))))
		}(i)
	}
	wg.Wait()

	got, err := s.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Agents, n, "no roster update may be lost")
}

func TestCompanyStore_RemoveAgentTwice(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")
	agent := newAgent("jo@x.com")
	require.NoError(t, s.AddAgent(context.Background(), c.ID, agent))

	require.NoError(t, s.RemoveAgent(context.Background(), c.ID, agent.ID))
	assert.ErrorIs(t, s.RemoveAgent(context.Background(), c.ID, agent.ID), repository.ErrAgentNotFound)
	assert.ErrorIs(t, s.RemoveAgent(context.Background(), "missing", agent.ID), repository.ErrNotFound)
}

func TestCompanyStore_ReadsAreSnapshots(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")
	agent := newAgent("jo@x.com")
	require.NoError(t, s.AddAgent(context.Background(), c.ID, agent))

	before, err := s.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.NoError(t, s.RemoveAgent(context.Background(), c.ID, agent.ID))

	assert.Len(t, before.Agents, 1)
	after, err := s.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Agents)
}

func TestCompanyStore_DeleteCascadesAndFreesIdentity(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")
	agent := newAgent("jo@x.com")
	require.NoError(t, s.AddAgent(context.Background(), c.ID, agent))

	require.NoError(t, s.Delete(context.Background(), c.ID))
	assert.ErrorIs(t, s.Delete(context.Background(), c.ID), repository.ErrNotFound)
	assert.ErrorIs(t, s.AddAgent(context.Background(), c.ID, newAgent("x@x.com")), repository.ErrNotFound)

	exists, err := s.SubjectExists(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	newCompany(t, s, "Acme", "a@x.com")
}

func TestCompanyStore_UpdatePatch(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")
	newCompany(t, s, "Beta", "b@x.com")

	phone := "555-0100"
	avatar := "https://cdn.example.com/a.png"
	got, err := s.Update(context.Background(), c.ID, domain.CompanyPatch{Phone: &phone, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, phone, got.Phone)
	assert.True(t, got.AvatarManaged)
	assert.False(t, got.BannerManaged)

	taken := "b@x.com"
	_, err = s.Update(context.Background(), c.ID, domain.CompanyPatch{Email: &taken})
	field, ok := repository.IsDuplicate(err)
	require.True(t, ok)
	assert.Equal(t, "email", field)

	renamed := "Acme Realty"
	_, err = s.Update(context.Background(), c.ID, domain.CompanyPatch{Name: &renamed})
	require.NoError(t, err)
	newCompany(t, s, "Acme", "c@x.com")
}

func TestCompanyStore_SetAgentStatus(t *testing.T) {
	s := NewCompanyStore()
	c := newCompany(t, s, "Acme", "a@x.com")
	agent := newAgent("jo@x.com")
	require.NoError(t, s.AddAgent(context.Background(), c.ID, agent))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := s.SetAgentStatus(context.Background(), c.ID, agent.ID, domain.AgentStatusActive, at)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentStatusActive, got.Status)
	assert.Equal(t, at, got.UpdatedAt)

	_, err = s.SetAgentStatus(context.Background(), c.ID, "nope", domain.AgentStatusActive, at)
	assert.ErrorIs(t, err, repository.ErrAgentNotFound)
}
