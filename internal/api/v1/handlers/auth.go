package handlers

import (
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	users    *repository.UserRepo
	validate *validator.Validate
	secret   []byte
}

func NewAuthHandler(users *repository.UserRepo, validate *validator.Validate, secret []byte) *AuthHandler {
	return &AuthHandler{users: users, validate: validate, secret: secret}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	type RegisterRequest struct {
		FullName string `json:"full_name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role"`
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in register", zap.Error(err))
		return respondError(c, apperr.Validation("Bad request"))
	}
	if err := h.validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during register", zap.Error(err))
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
		if apperr.KindOf(err) == apperr.KindConflict {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
		}
		return respondError(c, err)
	}

	logger.AuditLogger.Info("User registered successfully", zap.Int("user_id", user.ID))
	return respond(c, fiber.StatusCreated, "User created successfully", fiber.Map{"id": user.ID})
}

// Login resolves the user by email and verifies the password. An unknown
// email and a wrong password answer identically so accounts cannot be
// enumerated.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return respondError(c, apperr.Validation("Bad request"))
	}
	if err := h.validate.Struct(req); err != nil {
		logger.AuditLogger.Warn("Validation error during login", zap.Error(err))
		return respondError(c, apperr.Validation("Missing fields (email, password required)"))
	}

	user, hash, err := h.users.Credentials(req.Email)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			return respondError(c, err)
		}
		logger.SecurityLogger.Warn("Login failed", zap.String("email", req.Email))
		return respondError(c, apperr.Authentication("Invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Login failed", zap.String("email", req.Email))
		return respondError(c, apperr.Authentication("Invalid credentials"))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(time.Hour * 1).Unix(),
	})
	tokenString, err := token.SignedString(h.secret)
	if err != nil {
		return respondError(c, err)
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	return respond(c, fiber.StatusOK, "Login success", fiber.Map{
		"access_token": tokenString,
		"user": fiber.Map{
			"id":        user.ID,
			"full_name": user.FullName,
			"role":      user.Role,
		},
	})
}
