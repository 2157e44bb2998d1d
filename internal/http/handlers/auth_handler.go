package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/dto"
	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// AuthHandler — регистрация, вход и профили.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер аутентификации.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: c.GetHeader("User-Agent"),
		IP:        c.ClientIP(),
	}
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Role:     req.Role,
	}, sessionMeta(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusCreated, gin.H{
		"user":   result.User,
		"tokens": result.TokenPair,
	})
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, sessionMeta(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{
		"user":   result.User,
		"tokens": result.TokenPair,
	})
}

// Refresh обрабатывает POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout обрабатывает POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{"logged_out": true})
}

// Me обрабатывает GET /me.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), actor.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	data := gin.H{"user": user}
	switch user.Role {
	case models.RoleBrand:
		if profile, err := h.auth.GetBrandProfile(c.Request.Context(), actor.ID); err == nil {
			data["brand_profile"] = profile
		}
	case models.RoleCreator:
		if profile, err := h.auth.GetCreatorProfile(c.Request.Context(), actor.ID); err == nil {
			data["creator_profile"] = profile
		}
	}

	response.OK(c, http.StatusOK, data)
}

// UpdateBrandProfile обрабатывает PUT /me/brand-profile.
func (h *AuthHandler) UpdateBrandProfile(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	var req dto.UpdateBrandProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	profile := &models.BrandProfile{
		UserID:      actor.ID,
		CompanyName: req.CompanyName,
		Description: req.Description,
		Website:     req.Website,
	}
	if err := h.auth.UpdateBrandProfile(c.Request.Context(), actor, profile); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusOK, profile)
}

// UpdateCreatorProfile обрабатывает PUT /me/creator-profile.
func (h *AuthHandler) UpdateCreatorProfile(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	var req dto.UpdateCreatorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	profile := &models.CreatorProfile{
		UserID:      actor.ID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Categories:  req.Categories,
		Telegram:    req.Telegram,
	}
	if err := h.auth.UpdateCreatorProfile(c.Request.Context(), actor, profile); err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusOK, profile)
}

// GetCreatorProfile обрабатывает GET /creators/:id — публичный профиль.
func (h *AuthHandler) GetCreatorProfile(c *gin.Context) {
	creatorID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	profile, err := h.auth.GetCreatorProfile(c.Request.Context(), creatorID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, http.StatusOK, profile)
}
