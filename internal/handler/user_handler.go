package handler

import (
	"errors"
	"net/http"

	"github.com/artrate/artrate/internal/models"
	"github.com/artrate/artrate/internal/policy"
	"github.com/artrate/artrate/internal/service"
	"github.com/artrate/artrate/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type CreateUserRequest struct {
	Username  string      `json:"username" binding:"required"`
	Email     string      `json:"email" binding:"required"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

type PatchUserRequest struct {
	Username  *string      `json:"username"`
	Email     *string      `json:"email"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role"`
}

func (r *PatchUserRequest) toPatch() service.UserPatch {
	return service.UserPatch{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}

// requireAdmin enforces the user-administration policy; it has already
// been established by the auth middleware that the caller holds a valid
// token.
func (h *UserHandler) requireAdmin(c *gin.Context) (*utils.Claims, bool) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
		return nil, false
	}

	if !policy.CanAdministerUsers(claims.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
		return nil, false
	}

	return claims, true
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	limit, offset := paginationParams(c)
	users, total, err := h.userService.ListUsers(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	results := make([]gin.H, 0, len(users))
	for i := range users {
		results = append(results, userResponse(&users[i]))
	}

	c.JSON(http.StatusOK, listEnvelope(total, results))
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.CreateUser(req.Username, req.Email, req.Role, req.FirstName, req.LastName, req.Bio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, userResponse(user))
}

// GetUser handles GET /users/:username
func (h *UserHandler) GetUser(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	user, err := h.userService.GetUserByUsername(c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// PatchUser handles PATCH /users/:username
func (h *UserHandler) PatchUser(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	var req PatchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.UpdateUser(c.Param("username"), req.toPatch())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// DeleteUser handles DELETE /users/:username
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Param("username")); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetSelf(claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// PatchMe handles PATCH /users/me. A regular user supplying a role value
// gets it silently discarded by the service, never honored.
func (h *UserHandler) PatchMe(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req PatchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.userService.UpdateSelf(claims.UserID, req.toPatch())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}
