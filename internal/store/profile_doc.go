package store

import (
	"context"
	"errors"

	"github.com/userdesk/apiserver/internal/storage"
	"github.com/userdesk/apiserver/types"
)

// profileDocument is the stored shape of a document-backend profile.
type profileDocument struct {
	FullName       string `json:"full_name"`
	ProfilePicture string `json:"profile_picture"`
}

// DocumentProfileRepository stores profile records as JSON documents in
// object storage, keyed by the user's full name. Two users sharing a full
// name share a document slot; the linked-relational backend keys by user id
// and does not have this aliasing.
type DocumentProfileRepository struct {
	storage *storage.Storage
}

func NewDocumentProfileRepository(s *storage.Storage) *DocumentProfileRepository {
	return &DocumentProfileRepository{storage: s}
}

func (r *DocumentProfileRepository) Create(ctx context.Context, profile types.Profile) error {
	doc := profileDocument{
		FullName:       profile.FullName,
		ProfilePicture: profile.ProfilePicture,
	}
	return r.storage.PutJSON(ctx, profile.FullName, doc)
}

func (r *DocumentProfileRepository) GetForUser(ctx context.Context, user types.User) (types.Profile, error) {
	var doc profileDocument
	if err := r.storage.GetJSON(ctx, user.FullName, &doc); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}
	return types.Profile{
		FullName:       doc.FullName,
		ProfilePicture: doc.ProfilePicture,
	}, nil
}
