package types

// User represents an identity record in the system.
type User struct {
	// ID is the unique identifier of the user, assigned by the database
	// on insert and immutable afterwards.
	ID int `json:"user_id" db:"id"`

	// FullName is the user's display or full name. In the document
	// profile backend it doubles as the profile join key.
	FullName string `json:"full_name" db:"full_name"`

	// Email is the user's email address. Globally unique.
	Email string `json:"email" db:"email"`

	// Password stores the user's password verbatim.
	// This field is never exposed in API responses.
	Password string `json:"-" db:"password"`

	// Phone is the user's phone number. Uniqueness is enforced when the
	// registration policy requires it.
	Phone string `json:"phone" db:"phone"`
}
