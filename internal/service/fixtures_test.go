package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/config"
	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/events"
	"github.com/spec-kit/realty-service/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	companies *CompanyService
	ratings   *RatingService
	auth      *AuthService
	tokens    *auth.TokenManager
	hasher    *auth.Hasher
	events    *recorder
}

// raterOperators are the operator subjects the rating tests submit as.
var raterOperators = []string{"u1", "a", "b", "c"}

func newFixture(t *testing.T, operators ...config.OperatorAccount) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher(logger)
	for _, typ := range events.AllEventTypes {
		dispatcher.Subscribe(typ, rec.handle)
	}

	companyStore := memory.NewCompanyStore()
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	retry := config.RetryConfig{Attempts: 2}

	operatorIDs := append([]string(nil), raterOperators...)
	for _, op := range operators {
		operatorIDs = append(operatorIDs, op.Email)
	}

	ratings := NewRatingService(RatingDependencies{
		RatingRepo: memory.NewRatingStore(companyStore),
		Subjects:   companyStore,
		Dispatcher: dispatcher,
		Operators:  operatorIDs,
		Retry:      retry,
		Logger:     logger,
	})
	companies := NewCompanyService(CompanyDependencies{
		CompanyRepo: companyStore,
		Aggregates:  ratings,
		Hasher:      hasher,
		Dispatcher:  dispatcher,
		Retry:       retry,
		Logger:      logger,
	})
	authSvc := NewAuthService(config.AuthConfig{Operators: operators}, AuthDependencies{
		Companies: companies,
		Tokens:    tokens,
		Hasher:    hasher,
		Logger:    logger,
	})

	return &fixture{
		companies: companies,
		ratings:   ratings,
		auth:      authSvc,
		tokens:    tokens,
		hasher:    hasher,
		events:    rec,
	}
}

func companyActor(c *domain.Company) *domain.Identity {
	return &domain.Identity{SubjectID: c.ID, Role: domain.RoleCompany, CompanyID: c.ID}
}

func (f *fixture) mustCompany(t *testing.T, name, email string) *domain.Company {
	t.Helper()
	c, err := f.companies.CreateCompany(context.Background(), CreateCompanyInput{Name: name, Email: email, Password: "Secret1!"})
	if err != nil {
		t.Fatalf("create company %s: %v", name, err)
	}
	return c
}
