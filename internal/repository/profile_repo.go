package repository

import (
	"context"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
)

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type CoachListFilter struct {
	Specialization string
	MinRating      float64
	MaxPrice       float64
	Offset         int
	Limit          int
}

func (r *ProfileRepository) CreateEmpty(ctx context.Context, userID string) error {
	query := `INSERT INTO profiles (user_id) VALUES ($1)`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, full_name, avatar_url, bio, specializations, hourly_rate,
			   rating, is_verified, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Specializations,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.IsVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// IdentitiesByUserIDs batch-loads display names and avatars for the thread
// assembler. Missing profiles simply do not appear in the result map.
func (r *ProfileRepository) IdentitiesByUserIDs(
	ctx context.Context,
	userIDs []string,
) (map[string]models.ProfileIdentity, error) {
	identities := make(map[string]models.ProfileIdentity, len(userIDs))
	if len(userIDs) == 0 {
		return identities, nil
	}

	query := `
		SELECT user_id, full_name, avatar_url
		FROM profiles
		WHERE user_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var identity models.ProfileIdentity
		if err := rows.Scan(&userID, &identity.FullName, &identity.AvatarURL); err != nil {
			return nil, err
		}
		identities[userID] = identity
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return identities, nil
}

func (r *ProfileRepository) ListCoaches(
	ctx context.Context,
	filter CoachListFilter,
) ([]models.Profile, int, error) {
	baseWhere := `
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE u.role = 'coach'
		  AND ($1 = '' OR $1 = ANY(p.specializations))
		  AND ($2 = 0 OR p.rating >= $2)
		  AND ($3 = 0 OR p.hourly_rate <= $3)
	`

	var total int
	totalQuery := `SELECT COUNT(*)` + baseWhere
	if err := r.db.QueryRow(ctx, totalQuery,
		filter.Specialization, filter.MinRating, filter.MaxPrice,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT p.user_id, p.full_name, p.avatar_url, p.bio, p.specializations,
			   p.hourly_rate, p.rating, p.is_verified, p.created_at, p.updated_at
	` + baseWhere + `
		ORDER BY p.rating DESC NULLS LAST, p.user_id ASC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, query,
		filter.Specialization, filter.MinRating, filter.MaxPrice,
		filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(
			&profile.UserID,
			&profile.FullName,
			&profile.AvatarURL,
			&profile.Bio,
			&profile.Specializations,
			&profile.HourlyRate,
			&profile.Rating,
			&profile.IsVerified,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}

		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}
