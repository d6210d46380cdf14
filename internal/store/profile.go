package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/userdesk/apiserver/types"
)

// ProfileRepository handles persistence for profile records in the
// linked-relational backend, where profiles reference users by foreign key.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile types.Profile) error {
	const query = `
		INSERT INTO profiles (user_id, profile_picture)
		VALUES ($1, $2)
		RETURNING id`
	var id int
	if err := r.db.QueryRowContext(
		ctx,
		query,
		profile.UserID,
		profile.ProfilePicture,
	).Scan(&id); err != nil {
		return err
	}
	return nil
}

func (r *ProfileRepository) GetForUser(ctx context.Context, user types.User) (types.Profile, error) {
	const query = `
		SELECT id, user_id, profile_picture
		FROM profiles
		WHERE user_id = $1`
	var profile types.Profile
	err := r.db.QueryRowContext(ctx, query, user.ID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.ProfilePicture,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}
	return profile, nil
}
