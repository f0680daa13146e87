package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillfeed/quillfeed/internal/apperr"
	"github.com/quillfeed/quillfeed/internal/auth"
)

// refreshCookieName is the http-only cookie carrying the refresh token
const refreshCookieName = "refresh_token"

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// setRefreshCookie stores the refresh token in a secure, http-only cookie
// whose expiry matches the refresh-token lifetime
func (r *Router) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(r.auth.RefreshLifetime().Seconds()), "/api/v1/auth", "", true, true)
}

func (r *Router) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation", "detail": err.Error()})
		return
	}

	pair, err := r.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	r.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusCreated, pair)
}

func (r *Router) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation", "detail": err.Error()})
		return
	}

	pair, err := r.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	r.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, pair)
}

func (r *Router) refresh(c *gin.Context) {
	// Token comes from the body when present, the auth cookie otherwise
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookieName)
	}
	if token == "" {
		respondError(c, apperr.Unauthorized("could not validate credentials"))
		return
	}

	pair, err := r.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	r.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, pair)
}

func (r *Router) currentUser(c *gin.Context) {
	principal := principalFrom(c)
	c.JSON(http.StatusOK, auth.Principal{ID: principal.ID, Username: principal.Username})
}
