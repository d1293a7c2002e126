package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkwise/internal/middleware"
	"linkwise/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      sessionUser `json:"user"`
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func writeSession(c *gin.Context, sess service.Session) {
	c.JSON(http.StatusOK, sessionResponse{
		Success:   true,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      sessionUser{ID: sess.User.ID, Email: sess.User.Email},
	})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentialsRequest
	_ = c.ShouldBindJSON(&req)
	sess, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	writeSession(c, sess)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	_ = c.ShouldBindJSON(&req)
	sess, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	writeSession(c, sess)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	h.auth.SignOut(middleware.Claims(c))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
