package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/visadesk-io/visadesk/internal/auth"
	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
)

// AuthHandler exposes login, registration, and identity endpoints.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService, notifications *services.NotificationService) (*AuthHandler, error) {
	users, err := services.NewUserService(db, notifications)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{users: users, jwt: jwt}, nil
}

// Login authenticates a user and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var payload struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Register creates a new account pending administrator approval.
func (h *AuthHandler) Register(c *gin.Context) {
	var payload struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		FullName string `json:"full_name" validate:"max=255"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterUserInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		FullName: payload.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// Me returns the authenticated user's record.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
