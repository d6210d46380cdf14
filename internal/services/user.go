package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/userdesk/apiserver/internal/store"
	"github.com/userdesk/apiserver/types"
)

// ErrUnsupportedEncoding is returned when an uploaded profile picture is not
// valid UTF-8 and cannot be stored as text.
var ErrUnsupportedEncoding = errors.New("unsupported payload encoding")

// UserRepository defines persistence operations for identity records.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// ProfileRepository defines persistence operations for profile records.
// The linked-relational and document backends both implement it.
type ProfileRepository interface {
	Create(ctx context.Context, profile types.Profile) error
	GetForUser(ctx context.Context, user types.User) (types.Profile, error)
}

// EventPublisher publishes registration events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// RegisterInput carries the registration form fields. Picture is nil when no
// profile picture was uploaded.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
	Picture  []byte
}

// UserDetails merges an identity record with its profile picture.
// ProfilePicture is nil when the user has no profile record.
type UserDetails struct {
	User           types.User
	ProfilePicture *string
}

// UserService encapsulates registration and lookup use-cases.
type UserService struct {
	users       UserRepository
	profiles    ProfileRepository
	publisher   EventPublisher
	topic       string
	uniquePhone bool
	logger      *slog.Logger
}

// UserServiceOptions configures optional UserService behavior.
type UserServiceOptions struct {
	// UniquePhone rejects registrations whose phone number is already in use.
	UniquePhone bool

	// Publisher, when non-nil, receives a best-effort event on Topic for
	// every successful registration.
	Publisher EventPublisher
	Topic     string

	Logger *slog.Logger
}

func NewUserService(users UserRepository, profiles ProfileRepository, opts UserServiceOptions) *UserService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:       users,
		profiles:    profiles,
		publisher:   opts.Publisher,
		topic:       opts.Topic,
		uniquePhone: opts.UniquePhone,
		logger:      logger,
	}
}

// Register creates an identity record and, when a picture was uploaded, a
// profile record. The existence pre-checks are advisory; the database
// unique constraint is the authoritative guard, and its rejection surfaces
// as the same duplicate errors. A profile-store failure after the identity
// insert is returned as-is: the identity row is not rolled back.
func (s *UserService) Register(ctx context.Context, input RegisterInput) error {
	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return store.ErrDuplicateEmail
	}

	if s.uniquePhone {
		exists, err := s.users.ExistsByPhone(ctx, input.Phone)
		if err != nil {
			return fmt.Errorf("check phone: %w", err)
		}
		if exists {
			return store.ErrDuplicatePhone
		}
	}

	var picture string
	if input.Picture != nil {
		if !utf8.Valid(input.Picture) {
			return ErrUnsupportedEncoding
		}
		picture = string(input.Picture)
	}

	user, err := s.users.Create(ctx, types.User{
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
	})
	if err != nil {
		return err
	}

	if input.Picture != nil {
		err := s.profiles.Create(ctx, types.Profile{
			UserID:         user.ID,
			FullName:       user.FullName,
			ProfilePicture: picture,
		})
		if err != nil {
			return fmt.Errorf("store profile: %w", err)
		}
	}

	s.publishRegistered(ctx, user)
	return nil
}

// GetDetails fetches an identity record by id and merges in its profile
// picture. A missing profile is not an error: the picture is nil.
func (s *UserService) GetDetails(ctx context.Context, id int) (UserDetails, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return UserDetails{}, err
	}

	profile, err := s.profiles.GetForUser(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return UserDetails{User: user}, nil
		}
		return UserDetails{}, fmt.Errorf("fetch profile: %w", err)
	}

	return UserDetails{User: user, ProfilePicture: &profile.ProfilePicture}, nil
}

type registeredEvent struct {
	UserID   int    `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// publishRegistered emits a best-effort registration event. Failures are
// logged and never affect the registration outcome.
func (s *UserService) publishRegistered(ctx context.Context, user types.User) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(registeredEvent{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
	})
	if err != nil {
		s.logger.Error("marshal registration event", "error", err)
		return
	}

	attrs := map[string]string{"user_id": strconv.Itoa(user.ID)}
	if _, err := s.publisher.Publish(ctx, s.topic, data, attrs); err != nil {
		s.logger.Error("publish registration event", "error", err, "user_id", user.ID)
	}
}
