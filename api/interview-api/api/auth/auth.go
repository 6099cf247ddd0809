// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package auth_api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	internal_service "github.com/prepvault/api/interview-api/internal/service"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
	"github.com/prepvault/pkg/utils"
)

const (
	principleKey       = "auth-principle"
	defaultLatestLimit = 10
)

type authApi struct {
	cfg              *config.AppConfig
	logger           commons.Logger
	authService      internal_service.AuthService
	interviewService internal_service.InterviewService
}

func NewAuthApi(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) *authApi {
	return &authApi{
		cfg:              cfg,
		logger:           logger,
		authService:      internal_service.NewAuthService(cfg, logger, postgres),
		interviewService: internal_service.NewInterviewService(cfg, logger, postgres),
	}
}

type signUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (api *authApi) SignUp(c *gin.Context) {
	var request signUpRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	user, err := api.authService.SignUp(c.Request.Context(), request.Name, request.Email, request.Password)
	if err != nil {
		if errors.Is(err, internal_service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (api *authApi) SignIn(c *gin.Context) {
	var request signInRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	user, token, err := api.authService.SignIn(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, internal_service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

func (api *authApi) CurrentUser(c *gin.Context) {
	principle := api.principle(c)
	if principle == nil {
		return
	}
	user, err := api.authService.GetUser(c.Request.Context(), principle.UserId)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (api *authApi) UserInterviews(c *gin.Context) {
	principle := api.principle(c)
	if principle == nil {
		return
	}
	interviews, err := api.interviewService.GetByUser(c.Request.Context(), principle.UserId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "interviews": interviews})
}

func (api *authApi) LatestInterviews(c *gin.Context) {
	principle := api.principle(c)
	if principle == nil {
		return
	}
	limit := defaultLatestLimit
	if raw := c.Query("limit"); !utils.IsEmpty(raw) {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	interviews, err := api.interviewService.GetLatest(c.Request.Context(), principle.UserId, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "interviews": interviews})
}

func (api *authApi) InterviewById(c *gin.Context) {
	if api.principle(c) == nil {
		return
	}
	interview, err := api.interviewService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "interview": interview})
}

// Middleware authenticates the bearer token and stores the principle on
// the request context.
func (api *authApi) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || utils.IsEmpty(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false})
			return
		}
		principle, err := api.authService.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false})
			return
		}
		c.Set(principleKey, principle)
		c.Next()
	}
}

func (api *authApi) principle(c *gin.Context) *internal_service.Principle {
	value, exists := c.Get(principleKey)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false})
		return nil
	}
	principle, ok := value.(*internal_service.Principle)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false})
		return nil
	}
	return principle
}
