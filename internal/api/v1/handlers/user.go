package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/middleware"
	"taskboard/internal/models"
	"taskboard/internal/policy"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserHandler struct {
	users    *repository.UserRepo
	cache    *redis.Client
	validate *validator.Validate
}

func NewUserHandler(users *repository.UserRepo, cache *redis.Client, validate *validator.Validate) *UserHandler {
	return &UserHandler{users: users, cache: cache, validate: validate}
}

func userCacheKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

// List returns every user for admins and managers. Developers get only
// their own record.
func (h *UserHandler) List(c *fiber.Ctx) error {
	identity := middleware.Identity(c)

	if policy.CanListAllUsers(identity) {
		users, err := h.users.List()
		if err != nil {
			return respondError(c, err)
		}
		return respond(c, fiber.StatusOK, "Users fetched successfully", users)
	}

	user, err := h.users.GetByID(identity.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User fetched successfully", user)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	targetID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid user ID"))
	}

	if !policy.CanViewUser(identity, targetID) {
		logger.SecurityLogger.Warn("Forbidden user read",
			zap.Int("user_id", identity.ID), zap.Int("target_id", targetID))
		return respondError(c, apperr.Forbidden("Forbidden"))
	}

	cacheKey := userCacheKey(targetID)
	if cached, err := h.cache.Get(c.UserContext(), cacheKey).Result(); err == nil {
		var user models.User
		if err = json.Unmarshal([]byte(cached), &user); err == nil {
			return respond(c, fiber.StatusOK, "User found (from cache)", user)
		}
	}

	user, err := h.users.GetByID(targetID)
	if err != nil {
		return respondError(c, err)
	}

	if userJSON, err := json.Marshal(user); err == nil {
		h.cache.SetEX(c.UserContext(), cacheKey, userJSON, time.Hour)
	}
	return respond(c, fiber.StatusOK, "User found", user)
}

// Me returns the caller's own record; 404 when the account was deleted
// mid-session.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	user, err := h.users.GetByID(identity.ID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User found", user)
}

// Create is the admin-only variant of registration.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	if !policy.CanCreateUser(identity) {
		logger.SecurityLogger.Warn("Forbidden user create", zap.Int("user_id", identity.ID))
		return respondError(c, apperr.Forbidden("Only admins can create users"))
	}

	type CreateUserRequest struct {
		FullName string `json:"full_name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role"`
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Bad request"))
	}
	if err := h.validate.Struct(req); err != nil {
		return respondError(c, apperr.Validation("Missing fields (full_name, email, password required)"))
	}

	role := models.RoleDeveloper
	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			return respondError(c, apperr.Validation("Invalid role"))
		}
		role = models.Role(req.Role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.users.Create(req.FullName, req.Email, string(hashedPassword), role)
	if err != nil {
		return respondError(c, err)
	}

	logger.AuditLogger.Info("User created", zap.Int("user_id", user.ID), zap.Int("created_by", identity.ID))
	return respond(c, fiber.StatusCreated, "User created successfully", user)
}

// Update patches a user. Admins may touch anyone including the role;
// everyone else only themselves, with the role field silently dropped so
// a crafted request cannot escalate privileges.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	targetID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid user ID"))
	}

	if _, err := h.users.GetByID(targetID); err != nil {
		return respondError(c, err)
	}
	if !policy.CanUpdateUser(identity, targetID) {
		logger.SecurityLogger.Warn("Forbidden user update",
			zap.Int("user_id", identity.ID), zap.Int("target_id", targetID))
		return respondError(c, apperr.Forbidden("Forbidden"))
	}

	type UpdateUserRequest struct {
		FullName *string `json:"full_name"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.Validation("Bad request"))
	}

	// Non-admins never get to set a role, no matter what they sent.
	if !policy.CanAssignRole(identity) {
		req.Role = nil
	}

	var fullName string
	if req.FullName != nil {
		fullName = *req.FullName
	}

	var hashedPassword string
	if req.Password != nil && *req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return respondError(c, err)
		}
		hashedPassword = string(hashed)
	}

	var role string
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return respondError(c, apperr.Validation("Invalid role"))
		}
		role = *req.Role
	}

	user, err := h.users.Update(targetID, fullName, hashedPassword, role)
	if err != nil {
		return respondError(c, err)
	}

	h.cache.Del(c.UserContext(), userCacheKey(targetID))
	if userJSON, err := json.Marshal(user); err == nil {
		h.cache.SetEX(c.UserContext(), userCacheKey(targetID), userJSON, time.Hour)
	}

	logger.AuditLogger.Info("User updated successfully", zap.Int("user_id", targetID))
	return respond(c, fiber.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	targetID, err := c.ParamsInt("id")
	if err != nil {
		return respondError(c, apperr.Validation("Invalid user ID"))
	}

	if !policy.CanDeleteUser(identity) {
		logger.SecurityLogger.Warn("Forbidden user delete",
			zap.Int("user_id", identity.ID), zap.Int("target_id", targetID))
		return respondError(c, apperr.Forbidden("Only admins can delete users"))
	}

	if err := h.users.Delete(targetID); err != nil {
		return respondError(c, err)
	}

	h.cache.Del(c.UserContext(), userCacheKey(targetID))

	logger.AuditLogger.Info("User deleted successfully", zap.Int("user_id", targetID))
	return c.SendStatus(fiber.StatusNoContent)
}
