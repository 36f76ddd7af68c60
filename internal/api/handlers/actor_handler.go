// internal/api/handlers/actor_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"food-rescue-api-server/internal/auth"
	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ActorHandler struct {
	Actors donation.ActorRegistry
	Store  donation.Store
	Tokens *auth.Tokens
}

type SignupRequest struct {
	Name     string             `json:"name" binding:"required"`
	Email    string             `json:"email" binding:"required,email"`
	Password string             `json:"password" binding:"required,min=8"`
	Role     models.Role        `json:"role" binding:"required,oneof=restaurant ngo volunteer"`
	Location *models.Coordinate `json:"location"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a restaurant, NGO or volunteer. Restaurants and NGOs must give a location.
func (h *ActorHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Role {
	case models.RoleRestaurant, models.RoleNGO:
		if req.Location == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location is required for restaurants and NGOs"})
			return
		}
		if err := req.Location.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	case models.RoleVolunteer:
		// Tình nguyện viên di chuyển liên tục nên không lưu vị trí.
		req.Location = nil
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	actor := models.Actor{
		ID:           uuid.NewString(),
		Role:         req.Role,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashedPassword,
		Location:     req.Location,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Actors.Create(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}

	token, err := h.Tokens.Generate(actor.ID, actor.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "actor": actor})
}

// Login xử lý việc đăng nhập và cấp JWT.
func (h *ActorHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := h.Actors.FindByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, donation.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		respondError(c, err)
		return
	}

	if !auth.CheckPasswordHash(req.Password, actor.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.Tokens.Generate(actor.ID, actor.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "actor": actor})
}

// GetLeaderboard ranks actors by how many handoffs they took part in.
func (h *ActorHandler) GetLeaderboard(c *gin.Context) {
	entries, err := donation.Leaderboard(c.Request.Context(), h.Store, h.Actors)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
