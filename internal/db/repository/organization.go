package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// OrganizationRepository defines read operations over the tenant hierarchy.
type OrganizationRepository interface {
	// ListOrganizations retrieves all organizations.
	ListOrganizations(ctx context.Context) ([]*models.Organization, error)

	// GetOrganization retrieves a single organization by id.
	GetOrganization(ctx context.Context, orgID string) (*models.Organization, error)

	// ListProjects retrieves all projects of an organization.
	ListProjects(ctx context.Context, orgID string) ([]*models.Project, error)

	// GetProject retrieves a single project scoped to an organization.
	GetProject(ctx context.Context, orgID, projectID string) (*models.Project, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository creates a new OrganizationRepository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	query := `
		SELECT id, name, plan, notify_email, created_at
		FROM organizations
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list organizations")
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Plan, &org.NotifyEmail, &org.CreatedAt); err != nil {
			return nil, db.WrapError(err, "scan organization")
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate organizations")
	}

	return orgs, nil
}

func (r *organizationRepository) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	query := `
		SELECT id, name, plan, notify_email, created_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.pool.QueryRow(ctx, query, orgID).Scan(&org.ID, &org.Name, &org.Plan, &org.NotifyEmail, &org.CreatedAt)
	if err != nil {
		return nil, db.WrapError(err, "get organization")
	}

	return org, nil
}

func (r *organizationRepository) ListProjects(ctx context.Context, orgID string) ([]*models.Project, error) {
	query := `
		SELECT id, organization_id, name, created_at
		FROM projects
		WHERE organization_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, db.WrapError(err, "list projects")
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p := &models.Project{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.CreatedAt); err != nil {
			return nil, db.WrapError(err, "scan project")
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate projects")
	}

	return projects, nil
}

func (r *organizationRepository) GetProject(ctx context.Context, orgID, projectID string) (*models.Project, error) {
	query := `
		SELECT id, organization_id, name, created_at
		FROM projects
		WHERE organization_id = $1 AND id = $2
	`

	p := &models.Project{}
	err := r.pool.QueryRow(ctx, query, orgID, projectID).Scan(&p.ID, &p.OrganizationID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, db.WrapError(err, "get project")
	}

	return p, nil
}
