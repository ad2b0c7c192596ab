package public

import (
	"errors"
	"time"

	"github.com/emberline/storefront/internal/http/response"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest signs an account in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserView is the account representation returned to the client.
type UserView struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account and signs it in. The returned token is the
// identity transition that lets the client trigger the cart merge.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Register(service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			response.BadRequest(c, "email address is invalid")
		case errors.Is(err, service.ErrWeakPassword):
			response.BadRequest(c, "password must be at least 8 characters")
		case errors.Is(err, service.ErrEmailTaken):
			response.BadRequest(c, "email already registered")
		default:
			respondError(c, response.CodeInternal, "registration failed", err)
		}
		return
	}
	respondAuthSuccess(c, user, token, expiresAt)
}

// Login verifies credentials and issues a token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, "invalid email or password")
		case errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, "account is disabled")
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}
	respondAuthSuccess(c, user, token, expiresAt)
}

// Me returns the authenticated account.
func (h *Handler) Me(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil || user == nil {
		respondError(c, response.CodeInternal, "failed to load account", err)
		return
	}
	response.Success(c, toUserView(user))
}

func respondAuthSuccess(c *gin.Context, user *models.User, token string, expiresAt time.Time) {
	response.Success(c, gin.H{
		"user":       toUserView(user),
		"token":      token,
		"expires_at": expiresAt,
	})
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
