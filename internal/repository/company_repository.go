package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/realty-service/internal/domain"
)

// CompanyRepository persists companies together with their embedded roster.
// Roster mutations are single conditional updates against the company row.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetByEmail(ctx context.Context, email string) (*domain.Company, error)
	Update(ctx context.Context, id string, patch domain.CompanyPatch) (*domain.Company, error)
	Delete(ctx context.Context, id string) error
	AddAgent(ctx context.Context, companyID string, agent *domain.Agent) error
	RemoveAgent(ctx context.Context, companyID, agentID string) error
	SetAgentStatus(ctx context.Context, companyID, agentID string, status domain.AgentStatus, at time.Time) (*domain.Agent, error)
	SubjectExists(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

const companyColumns = `id, company_name, email, password_hash, phone, address, description, website,
        avatar_url, avatar_managed, banner_url, banner_managed, agents, created_at, updated_at`

type companyRepository struct {
	db DBTX
}

// NewCompanyRepository returns a Postgres-backed implementation.
func NewCompanyRepository(db DBTX) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	agents, err := encodeAgents(company.Agents)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO companies (company_name, email, password_hash, phone, address, description, website,
            avatar_url, avatar_managed, banner_url, banner_managed, agents)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::jsonb)
        RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		company.Name,
		company.Email,
		company.PasswordHash,
		company.Phone,
		company.Address,
		company.Description,
		company.Website,
		company.AvatarURL,
		company.AvatarManaged,
		company.BannerURL,
		company.BannerManaged,
		agents,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
	return classify(err)
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id=$1`
	return scanCompany(r.db.QueryRow(ctx, query, id))
}

func (r *companyRepository) GetByEmail(ctx context.Context, email string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE lower(email)=lower($1)`
	return scanCompany(r.db.QueryRow(ctx, query, email))
}

func (r *companyRepository) Update(ctx context.Context, id string, patch domain.CompanyPatch) (*domain.Company, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	args := []any{}
	sets := []string{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Name != nil {
		set("company_name", *patch.Name)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Website != nil {
		set("website", *patch.Website)
	}
	if patch.AvatarURL != nil {
		set("avatar_url", *patch.AvatarURL)
		sets = append(sets, "avatar_managed=TRUE")
	}
	if patch.BannerURL != nil {
		set("banner_url", *patch.BannerURL)
		sets = append(sets, "banner_managed=TRUE")
	}
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE companies SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), companyColumns)

	return scanCompany(r.db.QueryRow(ctx, query, args...))
}

func (r *companyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddAgent appends agent unless the roster already holds its email. The
// containment predicate is re-evaluated against the latest row version when
// concurrent updates queue on the row lock, so at most one of them succeeds.
func (r *companyRepository) AddAgent(ctx context.Context, companyID string, agent *domain.Agent) error {
	encoded, err := json.Marshal(agent)
	if err != nil {
		return err
	}

	const query = `
        UPDATE companies
        SET agents = agents || jsonb_build_array($2::jsonb), updated_at = NOW()
        WHERE id = $1
          AND NOT agents @> jsonb_build_array(jsonb_build_object('email', $3::text))`

	cmd, err := r.db.Exec(ctx, query, companyID, string(encoded), agent.Email)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}

	exists, err := r.companyExists(ctx, companyID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return &DuplicateError{Field: "email"}
}

func (r *companyRepository) RemoveAgent(ctx context.Context, companyID, agentID string) error {
	const query = `
        UPDATE companies
        SET agents = COALESCE((
                SELECT jsonb_agg(elem ORDER BY pos)
                FROM jsonb_array_elements(agents) WITH ORDINALITY AS t(elem, pos)
                WHERE elem->>'id' <> $2), '[]'::jsonb),
            updated_at = NOW()
        WHERE id = $1
          AND agents @> jsonb_build_array(jsonb_build_object('id', $2::text))`

	cmd, err := r.db.Exec(ctx, query, companyID, agentID)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	return r.missingAgent(ctx, companyID)
}

func (r *companyRepository) SetAgentStatus(ctx context.Context, companyID, agentID string, status domain.AgentStatus, at time.Time) (*domain.Agent, error) {
	const query = `
        UPDATE companies
        SET agents = (
                SELECT jsonb_agg(
                    CASE WHEN elem->>'id' = $2
                         THEN elem || jsonb_build_object('status', $3::text, 'updatedAt', $4::text)
                         ELSE elem END
                    ORDER BY pos)
                FROM jsonb_array_elements(agents) WITH ORDINALITY AS t(elem, pos)),
            updated_at = NOW()
        WHERE id = $1
          AND agents @> jsonb_build_array(jsonb_build_object('id', $2::text))
        RETURNING agents`

	var raw []byte
	err := r.db.QueryRow(ctx, query, companyID, agentID, string(status), at.UTC().Format(time.RFC3339Nano)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missingAgent(ctx, companyID)
	}
	if err != nil {
		return nil, classify(err)
	}

	company := domain.Company{}
	if err := json.Unmarshal(raw, &company.Agents); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	agent, ok := company.FindAgent(agentID)
	if !ok {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

func (r *companyRepository) SubjectExists(ctx context.Context, id string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM companies
            WHERE id = $1 OR agents @> jsonb_build_array(jsonb_build_object('id', $1::text)))`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (r *companyRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return ErrUnavailable
	}
	return classify(r.db.Ping(ctx))
}

func (r *companyRepository) companyExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

// missingAgent decides which of the two not-found cases a zero-row roster update hit.
func (r *companyRepository) missingAgent(ctx context.Context, companyID string) error {
	exists, err := r.companyExists(ctx, companyID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAgentNotFound
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var (
		company domain.Company
		agents  []byte
	)
	if err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Email,
		&company.PasswordHash,
		&company.Phone,
		&company.Address,
		&company.Description,
		&company.Website,
		&company.AvatarURL,
		&company.AvatarManaged,
		&company.BannerURL,
		&company.BannerManaged,
		&agents,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, classify(err)
	}
	if len(agents) > 0 {
		if err := json.Unmarshal(agents, &company.Agents); err != nil {
			return nil, fmt.Errorf("decode roster: %w", err)
		}
	}
	return &company, nil
}

func encodeAgents(agents []domain.Agent) (string, error) {
	if agents == nil {
		agents = []domain.Agent{}
	}
	encoded, err := json.Marshal(agents)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
