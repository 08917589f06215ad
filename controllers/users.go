package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/numberplay/numberplay-backend/auth"
	"github.com/numberplay/numberplay-backend/middleware"
	"github.com/numberplay/numberplay-backend/models"
	"github.com/numberplay/numberplay-backend/repository"
	"github.com/numberplay/numberplay-backend/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserController struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	mailer *services.Mailer
	log    *zap.SugaredLogger
}

func NewUserController(users repository.UserRepository, tokens *auth.TokenManager, mailer *services.Mailer, log *zap.SugaredLogger) *UserController {
	return &UserController{users: users, tokens: tokens, mailer: mailer, log: log}
}

type registerRequest struct {
	Username        string `json:"username" binding:"required,max=150"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Register creates an account, hands out a token pair, and queues the
// welcome mail off the request path.
func (uc *UserController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	if _, err := uc.users.GetByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		uc.log.Errorw("failed to check for existing user", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		uc.log.Errorw("failed to hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := uc.users.Create(c.Request.Context(), user); err != nil {
		uc.log.Errorw("failed to create user", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	access, refresh, err := uc.tokens.IssuePair(user.ID)
	if err != nil {
		uc.log.Errorw("failed to issue tokens", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	go uc.mailer.SendWelcome(user)

	c.JSON(http.StatusCreated, gin.H{
		"message":       "User registered successfully",
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Login authenticates by email and password.
func (uc *UserController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	user, err := uc.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		uc.log.Errorw("failed to load user", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	access, refresh, err := uc.tokens.IssuePair(user.ID)
	if err != nil {
		uc.log.Errorw("failed to issue tokens", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Refresh exchanges a refresh token for a fresh access token.
func (uc *UserController) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return
	}

	access, err := uc.tokens.Refresh(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Me returns the authenticated user's profile.
func (uc *UserController) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
		return
	}

	user, err := uc.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		uc.log.Errorw("failed to load user", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// jsonFieldNames maps request struct fields to their wire names for
// validation error bodies.
var jsonFieldNames = map[string]string{
	"Username":        "username",
	"Email":           "email",
	"Password":        "password",
	"PasswordConfirm": "password_confirm",
	"Refresh":         "refresh",
}

func bindingErrors(err error) gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return gin.H{"error": "Invalid request body"}
	}

	out := gin.H{}
	for _, fe := range verrs {
		field, ok := jsonFieldNames[fe.Field()]
		if !ok {
			field = fe.Field()
		}

		switch fe.Tag() {
		case "required":
			out[field] = "This field is required."
		case "email":
			out[field] = "Enter a valid email address."
		case "min":
			out[field] = fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		case "max":
			out[field] = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case "eqfield":
			out[field] = "Passwords do not match."
		default:
			out[field] = "This value is invalid."
		}
	}
	return out
}
