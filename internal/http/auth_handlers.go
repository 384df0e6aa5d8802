package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/domain"
	"github.com/ayamekni/AfriOffres/internal/helper"
	"github.com/ayamekni/AfriOffres/internal/queue"
	"github.com/ayamekni/AfriOffres/internal/repo"
	"github.com/ayamekni/AfriOffres/internal/security"
)

const oauthStateCookie = "oauth_state"

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token"`
	User        *domain.User `json:"user"`
}

func (h *Handler) issue(c *gin.Context, status int, msg string, u *domain.User) {
	tok, err := security.MakeAccess(h.JWTSecret, u.ID.Hex(), u.Email, h.TokenTTL)
	if err != nil {
		h.internalError(c, "sign token", err)
		return
	}
	c.JSON(status, authResp{Message: msg, AccessToken: tok, User: u})
}

// Register godoc
// @Summary Register user
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 201 {object} authResp
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid json")
		return
	}
	in.Email = helper.NormalizeEmail(in.Email)
	for _, f := range []struct{ name, val string }{
		{"email", in.Email},
		{"password", in.Password},
		{"first_name", strings.TrimSpace(in.FirstName)},
		{"last_name", strings.TrimSpace(in.LastName)},
	} {
		if f.val == "" {
			errorJSON(c, http.StatusBadRequest, f.name+" is required")
			return
		}
	}

	ctx := c.Request.Context()
	if _, err := h.Users.FindUserByEmail(ctx, in.Email); err == nil {
		errorJSON(c, http.StatusConflict, "User already exists")
		return
	} else if !isNotFound(err) {
		h.internalError(c, "find user", err)
		return
	}

	hash, err := security.HashPassword(in.Password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("Password must be at most %d bytes", security.MaxPasswordBytes))
		return
	}
	if err != nil {
		h.internalError(c, "hash password", err)
		return
	}
	u := &domain.User{
		Email:                in.Email,
		PasswordHash:         hash,
		FirstName:            strings.TrimSpace(in.FirstName),
		LastName:             strings.TrimSpace(in.LastName),
		Preferences:          domain.Preferences{},
		NotificationsEnabled: true,
		Provider:             domain.ProviderLocal,
		CreatedAt:            time.Now().UTC(),
	}
	if err := h.Users.CreateUser(ctx, u); err != nil {
		// lost a race with a concurrent registration; the unique index decided
		if errors.Is(err, repo.ErrDuplicate) {
			errorJSON(c, http.StatusConflict, "User already exists")
			return
		}
		h.internalError(c, "create user", err)
		return
	}

	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("email_hash", helper.Hash8(u.Email)))
	h.publish(c, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: u.ID.Hex(), Email: u.Email, Provider: u.Provider,
	})
	h.issue(c, http.StatusCreated, "User registered successfully", u)
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} authResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid json")
		return
	}
	email := helper.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		errorJSON(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := h.Users.FindUserByEmail(c.Request.Context(), email)
	if err != nil && !isNotFound(err) {
		h.internalError(c, "find user", err)
		return
	}
	if u == nil || !security.CheckPassword(u.PasswordHash, in.Password) {
		h.Log.Info("login rejected", zap.String("email_hash", helper.Hash8(email)))
		errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	h.issue(c, http.StatusOK, "Login successful", u)
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Failure 404 {object} map[string]string
// @Router /api/auth/google/login [get]
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.Google == nil {
		errorJSON(c, http.StatusNotFound, "Google sign-in is not configured")
		return
	}
	raw, err := security.NewID()
	if err != nil {
		h.internalError(c, "oauth state", err)
		return
	}
	state := h.Google.MakeState(raw)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/api/auth/google", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

// GoogleCallback godoc
// @Summary Finish Google sign-in
// @Tags auth
// @Produce json
// @Param state query string true "state"
// @Param code query string true "authorization code"
// @Success 200 {object} authResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		errorJSON(c, http.StatusNotFound, "Google sign-in is not configured")
		return
	}
	state := c.Query("state")
	cookie, _ := c.Cookie(oauthStateCookie)
	if state == "" || state != cookie || !h.Google.VerifyState(state) {
		errorJSON(c, http.StatusBadRequest, "invalid oauth state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/api/auth/google", "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		errorJSON(c, http.StatusBadRequest, "code is required")
		return
	}
	gu, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.Log.Warn("google exchange failed", zap.Error(err))
		errorJSON(c, http.StatusUnauthorized, "Google sign-in failed")
		return
	}

	email := helper.NormalizeEmail(gu.Email)
	u, created, err := h.Users.UpsertExternalUser(c.Request.Context(), domain.ProviderGoogle, gu.Sub, email, gu.GivenName, gu.FamilyName)
	if err != nil {
		h.internalError(c, "upsert google user", err)
		return
	}
	if created {
		h.publish(c, queue.KeyUserRegistered, queue.UserRegistered{
			UserID: u.ID.Hex(), Email: u.Email, Provider: domain.ProviderGoogle,
		})
	}
	h.issue(c, http.StatusOK, "Login successful", u)
}
