package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/realty-service/internal/domain"
)

// RatingRepository is the rating ledger. Entries are unique per (rater, ratee).
type RatingRepository interface {
	Upsert(ctx context.Context, entry *domain.RatingEntry) error
	Get(ctx context.Context, raterID, rateeID string) (*domain.RatingEntry, error)
	ListByRatee(ctx context.Context, rateeID string, limit, offset int) ([]domain.RatingEntry, error)
	// Aggregate counts only entries whose rater is a live company or agent,
	// or one of the given operator subjects.
	Aggregate(ctx context.Context, rateeID string, operators []string) (domain.Aggregate, error)
}

// SubjectChecker reports whether an id names a live company or agent.
type SubjectChecker interface {
	SubjectExists(ctx context.Context, id string) (bool, error)
}

const ratingColumns = `id, rater_id, ratee_id, scores, created_at, updated_at`

type ratingRepository struct {
	db DBTX
}

// NewRatingRepository returns a Postgres-backed implementation.
func NewRatingRepository(db DBTX) RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert inserts the entry or fully replaces the scores of the existing one.
// created_at is only written on insert.
func (r *ratingRepository) Upsert(ctx context.Context, entry *domain.RatingEntry) error {
	scores, err := json.Marshal(entry.Scores)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO rating_entries (rater_id, ratee_id, scores)
        VALUES ($1, $2, $3::jsonb)
        ON CONFLICT (rater_id, ratee_id)
        DO UPDATE SET scores = EXCLUDED.scores, updated_at = NOW()
        RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query, entry.RaterID, entry.RateeID, string(scores)).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	return classify(err)
}

func (r *ratingRepository) Get(ctx context.Context, raterID, rateeID string) (*domain.RatingEntry, error) {
	query := `SELECT ` + ratingColumns + ` FROM rating_entries WHERE rater_id=$1 AND ratee_id=$2`
	return scanRating(r.db.QueryRow(ctx, query, raterID, rateeID))
}

func (r *ratingRepository) ListByRatee(ctx context.Context, rateeID string, limit, offset int) ([]domain.RatingEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM rating_entries WHERE ratee_id=$1
        ORDER BY updated_at DESC LIMIT %d OFFSET %d`, ratingColumns, limit, offset)

	rows, err := r.db.Query(ctx, query, rateeID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var result []domain.RatingEntry
	for rows.Next() {
		entry, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, classify(rows.Err())
}

// Aggregate averages every category score of every entry naming rateeID
// whose rater still exists.
func (r *ratingRepository) Aggregate(ctx context.Context, rateeID string, operators []string) (domain.Aggregate, error) {
	const query = `
        SELECT COUNT(DISTINCT e.rater_id), AVG((s->>'score')::numeric)::float8
        FROM rating_entries e
        CROSS JOIN LATERAL jsonb_array_elements(e.scores) AS s
        WHERE e.ratee_id = $1
          AND (e.rater_id = ANY($2::text[])
               OR EXISTS (
                   SELECT 1 FROM companies c
                   WHERE c.id = e.rater_id
                      OR c.agents @> jsonb_build_array(jsonb_build_object('id', e.rater_id))))`

	if operators == nil {
		operators = []string{}
	}
	var (
		count int
		mean  *float64
	)
	if err := r.db.QueryRow(ctx, query, rateeID, operators).Scan(&count, &mean); err != nil {
		return domain.Aggregate{}, classify(err)
	}
	if count == 0 || mean == nil {
		return domain.NoRating(rateeID), nil
	}
	return domain.Aggregate{RateeID: rateeID, MeanScore: mean, Count: count}, nil
}

func scanRating(row pgx.Row) (*domain.RatingEntry, error) {
	var (
		entry  domain.RatingEntry
		scores []byte
	)
	if err := row.Scan(&entry.ID, &entry.RaterID, &entry.RateeID, &scores, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, classify(err)
	}
	if err := json.Unmarshal(scores, &entry.Scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return &entry, nil
}
