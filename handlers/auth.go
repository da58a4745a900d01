package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/config"
	"github.com/visionlab/visionbackend/models"
	"github.com/visionlab/visionbackend/repository"
)

const minPasswordLength = 8

type AuthHandler struct {
	UserRepo repository.UserRepositoryInterface
	Cfg      config.Config
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, cfg config.Config) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, Cfg: cfg}
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" {
		WriteAPIError(w, http.StatusBadRequest, "username_required", "Username is required")
		return
	}
	if len(payload.Password) < minPasswordLength {
		WriteAPIError(w, http.StatusBadRequest, "password_too_short", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	}

	if _, err := h.UserRepo.GetByUsername(payload.Username); err == nil {
		WriteAPIError(w, http.StatusConflict, "username_taken", "Username is already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to check username")
		return
	}

	user := &models.User{Username: payload.Username}
	if err := user.SetPassword(payload.Password); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to hash password")
		return
	}

	if err := h.UserRepo.Create(user); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	user, err := h.UserRepo.GetByUsername(payload.Username)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	if !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}

	expirationTime := time.Now().Add(time.Duration(h.Cfg.JWTExpirationHours) * time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(user.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "visionbackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.Cfg.JWTSecret))
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token")
		return
	}

	response := LoginResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expirationTime,
	}
	writeJSON(w, http.StatusOK, response)
}
