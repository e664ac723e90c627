package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"timetable-service/internal/middleware"
	"timetable-service/internal/models"
	"timetable-service/internal/service"
)

// UserStore resolves login credentials.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

// AuthHandler issues JWT tokens for the admin UI.
type AuthHandler struct {
	users    UserStore
	secret   string
	issuer   string
	tokenTTL time.Duration
}

func NewAuthHandler(users UserStore, secret, issuer string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{users: users, secret: secret, issuer: issuer, tokenTTL: tokenTTL}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required,oneof=admin faculty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondFail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondErr(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondFail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if user.Role != req.Role {
		respondFail(c, http.StatusForbidden, "Role does not match")
		return
	}

	token, err := middleware.IssueToken(user.ID.Hex(), user.Role, h.issuer, h.secret, h.tokenTTL)
	if err != nil {
		respondFail(c, http.StatusInternalServerError, "Server error")
		return
	}
	respond(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	}, "Login successful")
}
