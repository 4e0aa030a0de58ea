package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creator-tracker/video-sync-go/internal/db"
	"github.com/creator-tracker/video-sync-go/internal/db/models"
)

// AccountRepository defines operations for managing tracked accounts.
type AccountRepository interface {
	// ListActiveAccounts retrieves the active accounts of a project.
	ListActiveAccounts(ctx context.Context, orgID, projectID string) ([]*models.TrackedAccount, error)

	// GetAccountByID retrieves a single account by storage id.
	GetAccountByID(ctx context.Context, accountID int64) (*models.TrackedAccount, error)

	// MarkSynced stamps last_synced and the verification flags after a run.
	// Null flag values leave the stored flags untouched.
	MarkSynced(ctx context.Context, accountID int64, verified, blueVerified sql.NullBool) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `
	id, organization_id, project_id, platform, username, creator_type,
	is_active, is_verified, is_blue_verified, last_synced, created_at, updated_at
`

func (r *accountRepository) ListActiveAccounts(ctx context.Context, orgID, projectID string) ([]*models.TrackedAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM tracked_accounts
		WHERE organization_id = $1 AND project_id = $2 AND is_active
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orgID, projectID)
	if err != nil {
		return nil, db.WrapError(err, "list active accounts")
	}
	defer rows.Close()

	var accounts []*models.TrackedAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate accounts")
	}

	return accounts, nil
}

func (r *accountRepository) GetAccountByID(ctx context.Context, accountID int64) (*models.TrackedAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM tracked_accounts
		WHERE id = $1
	`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *accountRepository) MarkSynced(ctx context.Context, accountID int64, verified, blueVerified sql.NullBool) error {
	query := `
		UPDATE tracked_accounts
		SET last_synced = now(),
		    is_verified = COALESCE($2, is_verified),
		    is_blue_verified = COALESCE($3, is_blue_verified),
		    updated_at = now()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, accountID, verified, blueVerified); err != nil {
		return db.WrapError(err, "mark account synced")
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.TrackedAccount, error) {
	account := &models.TrackedAccount{}
	var platform string
	err := row.Scan(
		&account.ID,
		&account.OrganizationID,
		&account.ProjectID,
		&platform,
		&account.Username,
		&account.CreatorType,
		&account.IsActive,
		&account.IsVerified,
		&account.IsBlueVerified,
		&account.LastSynced,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "scan account")
	}

	account.Platform, err = models.ParsePlatform(platform)
	if err != nil {
		return nil, db.WrapError(err, "scan account")
	}

	return account, nil
}
