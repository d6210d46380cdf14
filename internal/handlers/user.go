package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/userdesk/apiserver/internal/services"
	"github.com/userdesk/apiserver/internal/store"
)

const (
	maxMultipartMemory = 32 << 20
	maxPictureBytes    = 16 << 20
	formFieldFullName  = "full_name"
	formFieldEmail     = "email"
	formFieldPassword  = "password"
	formFieldPhone     = "phone"
	formFieldPicture   = "profile_picture"
)

// UserHandler provides HTTP handlers for registration and lookup.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers the registration and lookup routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Post("/register", handler.Register)
	r.Get("/user/{userID}", handler.GetUser)
}

// Register accepts the registration form and creates the user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	input := services.RegisterInput{
		FullName: strings.TrimSpace(r.FormValue(formFieldFullName)),
		Email:    strings.TrimSpace(r.FormValue(formFieldEmail)),
		Password: r.FormValue(formFieldPassword),
		Phone:    strings.TrimSpace(r.FormValue(formFieldPhone)),
	}
	if input.FullName == "" || input.Email == "" || input.Password == "" || input.Phone == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	picture, err := readPicture(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.Picture = picture

	if err := h.userService.Register(r.Context(), input); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, store.ErrDuplicatePhone):
			writeError(w, http.StatusBadRequest, "Phone already registered")
		case errors.Is(err, services.ErrUnsupportedEncoding):
			writeError(w, http.StatusBadRequest, "unsupported profile picture encoding")
		default:
			writeError(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "User registered successfully"})
}

// GetUser returns the identity record and profile picture for a user id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := h.userService.GetDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		UserID:         details.User.ID,
		FullName:       details.User.FullName,
		Email:          details.User.Email,
		Phone:          details.User.Phone,
		ProfilePicture: details.ProfilePicture,
	})
}

// UserResponse is the merged identity-plus-profile reply.
// ProfilePicture is null when the user has no profile record.
type UserResponse struct {
	UserID         int     `json:"user_id"`
	FullName       string  `json:"full_name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	ProfilePicture *string `json:"profile_picture"`
}

// readPicture extracts the optional profile picture upload. Returns nil
// bytes when the field is absent.
func readPicture(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile(formFieldPicture)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("invalid profile picture upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPictureBytes+1))
	if err != nil {
		return nil, errors.New("failed to read profile picture")
	}
	if len(data) > maxPictureBytes {
		return nil, errors.New("profile picture too large")
	}
	return data, nil
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
