package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/studybuddy/internal/database"
	"github.com/example/studybuddy/internal/study"
	"github.com/example/studybuddy/pkg/models"
)

// tokenLifetime is how long an issued JWT stays valid
const tokenLifetime = 72 * time.Hour

// Handler holds the dependencies of the HTTP API
type Handler struct {
	users  *database.UserRepository
	study  *study.Service
	jwtKey []byte
	now    func() time.Time
}

// NewHandler creates an API handler over the given repositories and service
func NewHandler(users *database.UserRepository, studySvc *study.Service, jwtKey []byte) *Handler {
	return &Handler{
		users:  users,
		study:  studySvc,
		jwtKey: jwtKey,
		now:    time.Now,
	}
}

// Credentials is the JSON body for register/login requests
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser creates an account from email and password
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	email := strings.TrimSpace(strings.ToLower(creds.Email))
	if email == "" || len(creds.Password) < 8 {
		respondWithError(w, http.StatusBadRequest, "Email and a password of at least 8 characters are required")
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), email); err == nil {
		respondWithError(w, http.StatusConflict, "Email already exists")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		respondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:               &email,
		PasswordHash:        string(hashedPassword),
		Username:            email,
		NotificationEnabled: true,
		NotificationHour:    9,
		WordsPerDay:         10,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		respondWithError(w, http.StatusConflict, "Email already exists")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// LoginUser checks credentials and issues a JWT
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	email := strings.TrimSpace(strings.ToLower(creds.Email))
	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	claims := &Claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(h.now().Add(tokenLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtKey)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

// GetDueItems returns up to 20 items due for review, soonest first
func (h *Handler) GetDueItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token (no user ID)")
		return
	}

	items, err := h.study.GetDueItems(r.Context(), userID, h.now())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load due items")
		return
	}
	if items == nil {
		items = []models.VocabularyItem{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// SubmitReviewRequest is the JSON body of a review submission
type SubmitReviewRequest struct {
	ItemID  int64 `json:"item_id"`
	Quality int   `json:"quality"`
}

// SubmitReview applies a quality rating to one of the caller's items
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token (no user ID)")
		return
	}

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.study.SubmitReview(r.Context(), userID, req.ItemID, req.Quality, h.now())
	if err != nil {
		switch {
		case errors.Is(err, study.ErrInvalidQuality):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, study.ErrNotFound):
			respondWithError(w, http.StatusNotFound, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to submit review")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// AddItem creates a new vocabulary item with scheduler defaults
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token (no user ID)")
		return
	}

	var input study.AddItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := h.study.AddItem(r.Context(), userID, input, h.now())
	if err != nil {
		switch {
		case errors.Is(err, study.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, study.ErrDuplicateWord):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to add item")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

// DeleteItem removes one of the caller's vocabulary items
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token (no user ID)")
		return
	}

	itemID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := h.study.DeleteItem(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, study.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete item")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}
