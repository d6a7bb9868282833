package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vahabvahabov/silentsignals/internal/api/dto"
	"github.com/vahabvahabov/silentsignals/internal/api/middleware"
	"github.com/vahabvahabov/silentsignals/internal/auth"
	"github.com/vahabvahabov/silentsignals/internal/config"
	"github.com/vahabvahabov/silentsignals/internal/domain/user"
	"github.com/vahabvahabov/silentsignals/internal/pkg/errors"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
	"github.com/vahabvahabov/silentsignals/internal/pkg/utils"
	"github.com/vahabvahabov/silentsignals/internal/pkg/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService user.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	newUser, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.With("email", req.Email).ErrorWithErr(err, "Registration failed")
		utils.WriteAppError(w, err, "Failed to register user")
		return
	}

	tokens, err := h.mintTokens(newUser)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	h.setAuthCookies(w, tokens)
	utils.WriteSuccess(w, http.StatusCreated, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         userDTO(newUser),
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}

	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	authenticatedUser, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.With("email", req.Email).Warn("Authentication failed")
		utils.WriteAppError(w, err, "Authentication failed")
		return
	}

	tokens, err := h.mintTokens(authenticatedUser)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	h.setAuthCookies(w, tokens)

	h.logger.WithFields(map[string]interface{}{
		"user_id": authenticatedUser.ID,
		"email":   authenticatedUser.Email,
	}).Info("User logged in")

	utils.WriteSuccess(w, http.StatusOK, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         userDTO(authenticatedUser),
	})
}

// Me returns the current user's information
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	u, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		utils.WriteAppError(w, err, "Failed to get user")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, userDTO(u))
}

// VerifyEmail marks the current user's email address as verified
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("User not authenticated"))
		return
	}

	if err := h.userService.VerifyEmail(r.Context(), userID); err != nil {
		utils.WriteAppError(w, err, "Failed to verify email")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Email verified", nil)
}

// Logout clears the auth cookies
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			HttpOnly: true,
			Secure:   h.config.Server.Environment == "production",
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
			MaxAge:   -1,
		})
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) mintTokens(u *user.User) (auth.TokenPair, error) {
	return auth.MintTokens(
		u.ID,
		u.Email,
		u.Username,
		h.config.Auth.JWTSecret,
		h.config.Auth.AccessTokenExpiry,
		h.config.Auth.RefreshTokenExpiry,
	)
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, tokens auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(h.config.Auth.AccessTokenExpiry.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(h.config.Auth.RefreshTokenExpiry.Seconds()),
	})
}

func userDTO(u *user.User) *dto.UserDTO {
	return &dto.UserDTO{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Enabled:       u.Enabled,
		EmailVerified: u.EmailVerified,
	}
}
