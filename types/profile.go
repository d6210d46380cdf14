package types

// Profile represents a stored profile picture associated with a user.
//
// The relational backend links the profile to its user by UserID; the
// document backend keys the stored document by FullName instead. Only the
// field relevant to the configured backend is populated on reads.
type Profile struct {
	// ID is the unique identifier of the profile row. Zero for the
	// document backend, which has no generated ids.
	ID int `json:"id" db:"id"`

	// UserID references the identity record this profile belongs to.
	UserID int `json:"user_id" db:"user_id"`

	// FullName is the join key used by the document backend.
	FullName string `json:"full_name" db:"full_name"`

	// ProfilePicture is the picture payload decoded as UTF-8 text.
	ProfilePicture string `json:"profile_picture" db:"profile_picture"`
}
