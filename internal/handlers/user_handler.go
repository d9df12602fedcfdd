package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	"github.com/xpanvictor/humidhub/pkg/Logger"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService user.UserService
	logger      *Logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService user.UserService, logger *Logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Signup handles user registration
// @Summary Sign up
// @Description Create an account with a username and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body user.SignupRequest true "Signup data"
// @Success 201 {object} UserIDResponse "User created"
// @Failure 400 {object} ErrorResponse "Missing username or password"
// @Failure 409 {object} ErrorResponse "Username already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req user.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	userID, err := h.userService.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "signup", err)
		return
	}

	c.JSON(http.StatusCreated, UserIDResponse{
		UserID:  userID,
		Message: "User created successfully.",
	})
}

// Login handles user login
// @Summary Log in
// @Description Verify credentials and return the user id. No session token is issued.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body user.LoginRequest true "Login credentials"
// @Success 200 {object} UserIDResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Missing username or password"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	userID, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "login", err)
		return
	}

	c.JSON(http.StatusOK, UserIDResponse{
		UserID:  userID,
		Message: "Login successful.",
	})
}

// ListUsers handles listing all users
// @Summary List users
// @Description List users in creation order, optionally paginated
// @Tags Users
// @Produce json
// @Param offset query int false "Number of users to skip" default(0)
// @Param limit query int false "Number of users to return, 0 for all" default(0)
// @Success 200 {array} user.UserResponse "Users"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		limit = 0
	}

	users, err := h.userService.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, h.logger, "list users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles getting a user by ID
// @Summary Get user
// @Description Get a user and their devices by ID
// @Tags Users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} user.UserResponse "User"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /users/{userId} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.userService.GetUserByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, h.logger, "get user", err)
		return
	}

	c.JSON(http.StatusOK, u)
}
