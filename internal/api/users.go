package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"visaverse/internal/auth"
	"visaverse/internal/models"
	"visaverse/internal/service/account"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.accounts.RegisterUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		var inputErr *account.InputError
		switch {
		case errors.As(err, &inputErr):
			fail(c, http.StatusBadRequest, inputErr.Message)
		case errors.Is(err, account.ErrEmailTaken):
			fail(c, http.StatusConflict, "email already registered")
		default:
			h.logger.WithError(err).Error("register user failed")
			fail(c, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	h.respondWithSession(c, http.StatusCreated, user)
}

func (h *Handler) loginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var inputErr *account.InputError
		switch {
		case errors.As(err, &inputErr):
			fail(c, http.StatusBadRequest, inputErr.Message)
		case errors.Is(err, account.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, "invalid email or password")
		default:
			h.logger.WithError(err).Error("login failed")
			fail(c, http.StatusInternalServerError, "login failed")
		}
		return
	}
	h.respondWithSession(c, http.StatusOK, user)
}

func (h *Handler) respondWithSession(c *gin.Context, status int, user *models.User) {
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).Error("issue token failed")
		fail(c, http.StatusInternalServerError, "issue token failed")
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "issue token failed")
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(status, gin.H{
		"success": true,
		"token":   authToken,
		"user":    user,
	})
}

func (h *Handler) currentUser(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		fail(c, http.StatusUnauthorized, "authorization required")
		return
	}
	user, err := h.accounts.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			fail(c, http.StatusUnauthorized, "user no longer exists")
			return
		}
		h.logger.WithError(err).Error("load user failed")
		fail(c, http.StatusInternalServerError, "load user failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) logoutUser(c *gin.Context) {
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		if err := h.auth.RevokeToken(c.Request.Context(), authToken); err != nil {
			h.logger.WithError(err).Warn("revoke token failed")
		}
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}
