package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/events"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

type fakeCache struct {
	entries     map[string]domain.Aggregate
	invalidated []string
	failReads   bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]domain.Aggregate{}}
}

func (c *fakeCache) Get(_ context.Context, rateeID string) (domain.Aggregate, bool, error) {
	if c.failReads {
		return domain.Aggregate{}, false, errors.New("redis down")
	}
	agg, ok := c.entries[rateeID]
	return agg, ok, nil
}

func (c *fakeCache) Set(_ context.Context, agg domain.Aggregate) error {
	c.entries[agg.RateeID] = agg
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, rateeID string) error {
	delete(c.entries, rateeID)
	c.invalidated = append(c.invalidated, rateeID)
	return nil
}

func scores(pairs ...any) []domain.CategoryScore {
	out := make([]domain.CategoryScore, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.CategoryScore{Category: pairs[i].(domain.Category), Score: pairs[i+1].(int)})
	}
	return out
}

func TestSubmitRating_ResubmissionReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")
	a1, err := f.companies.AddAgent(ctx, nil, acme.ID, AddAgentInput{Name: "A1", Email: "a1@x.com", Password: "pw"})
	require.NoError(t, err)
	u1 := &domain.Identity{SubjectID: "u1", Role: domain.RoleAdmin}

	first, err := f.ratings.SubmitRating(ctx, u1, a1.ID, scores(domain.CategoryProfessionalism, 5))
	require.NoError(t, err)
	assert.Equal(t, "u1", first.RaterID)

	second, err := f.ratings.SubmitRating(ctx, u1, a1.ID,
		scores(domain.CategoryProfessionalism, 3, domain.CategoryResponsiveness, 4))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	agg, err := f.ratings.GetAggregate(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Count)
	require.NotNil(t, agg.MeanScore)
	assert.InDelta(t, 3.5, *agg.MeanScore, 1e-9)

	list, err := f.ratings.ListRatings(ctx, a1.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Scores, 2)
}

func TestSubmitRating_CountsDistinctRaters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")

	for i, sc := range []int{2, 4, 5} {
		rater := &domain.Identity{SubjectID: string(rune('a' + i)), Role: domain.RoleAdmin}
		_, err := f.ratings.SubmitRating(ctx, rater, acme.ID, scores(domain.CategoryOverall, sc))
		require.NoError(t, err)
	}

	agg, err := f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Count)
	assert.InDelta(t, 11.0/3.0, *agg.MeanScore, 1e-9)
}

func TestSubmitRating_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")
	rater := &domain.Identity{SubjectID: "u1", Role: domain.RoleAdmin}

	cases := map[string][]domain.CategoryScore{
		"empty":            nil,
		"unknown category": {{Category: "charm", Score: 3}},
		"score too low":    scores(domain.CategoryKnowledge, 0),
		"score too high":   scores(domain.CategoryKnowledge, 6),
		"repeated":         scores(domain.CategoryKnowledge, 3, domain.CategoryKnowledge, 4),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ratings.SubmitRating(ctx, rater, acme.ID, input)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
		})
	}

	_, err := f.ratings.SubmitRating(ctx, companyActor(acme), acme.ID, scores(domain.CategoryOverall, 5))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "self rating")

	_, err = f.ratings.SubmitRating(ctx, rater, "ghost", scores(domain.CategoryOverall, 5))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.ratings.SubmitRating(ctx, nil, acme.ID, scores(domain.CategoryOverall, 5))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	list, err := f.ratings.ListRatings(ctx, acme.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetAggregate_Sentinel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")

	agg, err := f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoRating(acme.ID), agg)

	agg, err = f.ratings.GetAggregate(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, agg.Rated())
}

func TestGetAggregate_OrphanedEntriesExcluded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")
	_, err := f.ratings.SubmitRating(ctx, &domain.Identity{SubjectID: "u1", Role: domain.RoleAdmin}, acme.ID,
		scores(domain.CategoryOverall, 5))
	require.NoError(t, err)

	require.NoError(t, f.companies.DeleteCompany(ctx, nil, acme.ID))

	agg, err := f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, agg.Count)
	assert.Nil(t, agg.MeanScore)
}

func TestGetAggregate_DeletedRatersExcluded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")
	beta := f.mustCompany(t, "Beta", "b@x.com")
	jo, err := f.companies.AddAgent(ctx, nil, beta.ID, AddAgentInput{Name: "Jo", Email: "jo@x.com", Password: "pw"})
	require.NoError(t, err)
	joActor := &domain.Identity{SubjectID: jo.ID, Role: domain.RoleAgent, CompanyID: beta.ID}

	_, err = f.ratings.SubmitRating(ctx, companyActor(beta), acme.ID, scores(domain.CategoryOverall, 1))
	require.NoError(t, err)
	_, err = f.ratings.SubmitRating(ctx, joActor, acme.ID, scores(domain.CategoryOverall, 3))
	require.NoError(t, err)
	_, err = f.ratings.SubmitRating(ctx, &domain.Identity{SubjectID: "u1", Role: domain.RoleAdmin}, acme.ID,
		scores(domain.CategoryOverall, 5))
	require.NoError(t, err)

	agg, err := f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, agg.Count)

	require.NoError(t, f.companies.RemoveAgent(ctx, nil, beta.ID, jo.ID))
	agg, err = f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 3.0, *agg.MeanScore, 1e-9)

	require.NoError(t, f.companies.DeleteCompany(ctx, nil, beta.ID))
	agg, err = f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Count)
	assert.InDelta(t, 5.0, *agg.MeanScore, 1e-9)

	_, err = f.ratings.SubmitRating(ctx, companyActor(beta), acme.ID, scores(domain.CategoryOverall, 1))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "got %v", err)
	_, err = f.ratings.SubmitRating(ctx, joActor, acme.ID, scores(domain.CategoryOverall, 1))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "got %v", err)
}

func TestSubmitRating_UnconfiguredOperatorRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")

	_, err := f.ratings.SubmitRating(ctx, &domain.Identity{SubjectID: "gone@x.com", Role: domain.RoleSuperuser}, acme.ID,
		scores(domain.CategoryOverall, 2))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "got %v", err)

	agg, err := f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.False(t, agg.Rated())
}

func TestRatingService_CacheReadThroughAndInvalidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")
	cache := newFakeCache()
	f.ratings.cache = cache
	rater := &domain.Identity{SubjectID: "u1", Role: domain.RoleAdmin}

	_, err := f.ratings.SubmitRating(ctx, rater, acme.ID, scores(domain.CategoryOverall, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{acme.ID}, cache.invalidated)

	agg, err := f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, agg, cache.entries[acme.ID])

	_, err = f.ratings.SubmitRating(ctx, rater, acme.ID, scores(domain.CategoryOverall, 4))
	require.NoError(t, err)
	_, cached := cache.entries[acme.ID]
	assert.False(t, cached)

	agg, err = f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, *agg.MeanScore, 1e-9)

	cache.failReads = true
	agg, err = f.ratings.GetAggregate(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Count)
}

func TestSubmitRating_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.mustCompany(t, "Acme", "a@x.com")

	entry, err := f.ratings.SubmitRating(ctx, &domain.Identity{SubjectID: "u1", Role: domain.RoleSuperuser}, acme.ID,
		scores(domain.CategoryHelpfulness, 5))
	require.NoError(t, err)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, events.EventRatingSubmitted, last.Type)
	assert.Equal(t, acme.ID, last.Key())
	payload := last.Payload.(events.RatingSubmittedPayload)
	assert.Equal(t, entry.ID, payload.EntryID)
	assert.WithinDuration(t, time.Now(), last.Timestamp, time.Minute)
}
