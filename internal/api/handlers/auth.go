package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/db/models"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewAuthHandler(users *services.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logger: logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Passport string `json:"passport" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passport and password are required"})
		return
	}

	token, err := ah.users.Login(c.Request.Context(), req.Passport, req.Password)
	if err != nil {
		ah.logger.Warn("Login failed", zap.String("passport", req.Passport), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type signUpRequest struct {
	Passport  string `json:"passport" binding:"required"`
	Role      string `json:"role" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (ah *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passport, role and password are required"})
		return
	}

	token, err := ah.users.SignUp(c.Request.Context(), services.SignUpInput{
		Passport:  req.Passport,
		Role:      models.UserRole(req.Role),
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		ah.logger.Warn("Sign-up failed", zap.String("passport", req.Passport), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token})
}
