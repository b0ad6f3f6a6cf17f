package admin_api

import (
	"errors"
	"net/http"
	"time"

	"controle-acesso/internal/auth"
	"controle-acesso/internal/utils"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login accepts JSON or a form post and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.validationFailed(w, err)
		return
	}

	token, claims, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Login failed", err.Error()))
		return
	case errors.Is(err, auth.ErrNotAdmin):
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("Login failed", err.Error()))
		return
	case err != nil:
		h.storeError(w, r, err, "User")
		return
	}

	expires := claims.ExpiresAt.Time
	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Login successful", loginResponse{
		Username:    claims.Subject,
		AccessToken: token,
		ExpiresAt:   expires,
	}))
}

// Logout clears the cookie and, when the presented token is still valid,
// revokes it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if raw, err := auth.ExtractTokenFromRequest(r, h.Cookie.Name); err == nil {
		if claims, err := h.Auth.Tokens.Parse(raw); err == nil {
			if err := h.Auth.Logout(r.Context(), claims); err != nil {
				h.Logger.Error("AUTH", "Failed to revoke token on logout: "+err.Error())
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged out", nil))
}
