package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/research-portal-api/internal/models"
)

const profileColumns = `id, user_id, national_id, age, phone, degree, university, profile_image, profile_complete, created_at, updated_at`

// ProfileRepository persists researcher profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the profile owned by userID.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM researcher_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile by user: %w", err)
	}
	return &profile, nil
}

// Upsert creates the profile or replaces its editable fields. The completeness
// flag is recomputed from the stored values on every write.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	profile.ProfileComplete = profile.Complete()

	const query = `INSERT INTO researcher_profiles (id, user_id, national_id, age, phone, degree, university, profile_image, profile_complete, created_at, updated_at)
		VALUES (:id, :user_id, :national_id, :age, :phone, :degree, :university, :profile_image, :profile_complete, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			national_id = EXCLUDED.national_id,
			age = EXCLUDED.age,
			phone = EXCLUDED.phone,
			degree = EXCLUDED.degree,
			university = EXCLUDED.university,
			profile_image = EXCLUDED.profile_image,
			profile_complete = EXCLUDED.profile_complete,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
