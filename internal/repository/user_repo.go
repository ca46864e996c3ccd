package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, role, subscription_tier, subscription_status,
	   stripe_customer_id, stripe_subscription_id, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.SubscriptionTier,
		&user.SubscriptionStatus,
		&user.StripeCustomerID,
		&user.StripeSubscriptionID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, subscription_tier, subscription_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		models.TierFree,
		models.SubscriptionNone,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE stripe_customer_id = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, customerID))
}

// UpdateSubscription is the only write path for the tier/status pair. Both
// fields move together so the record never holds a half-applied transition.
func (r *UserRepository) UpdateSubscription(
	ctx context.Context,
	userID string,
	tier string,
	status string,
) (*models.User, error) {
	query := `
		UPDATE users
		SET subscription_tier = $2,
			subscription_status = $3,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
	return scanUser(r.db.QueryRow(ctx, query, userID, tier, status))
}

// ApplySubscriptionTransition moves the tier/status pair and the stored
// provider ids in a single statement, so a failure can never leave the ids
// written while the tier lags behind.
func (r *UserRepository) ApplySubscriptionTransition(
	ctx context.Context,
	userID string,
	tier string,
	status string,
	customerID *string,
	subscriptionID *string,
) (*models.User, error) {
	query := `
		UPDATE users
		SET subscription_tier = $2,
			subscription_status = $3,
			stripe_customer_id = $4,
			stripe_subscription_id = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
	return scanUser(r.db.QueryRow(ctx, query, userID, tier, status, customerID, subscriptionID))
}
