package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	"github.com/yourusername/cphub-api/internal/handler/dto"
	"github.com/yourusername/cphub-api/internal/middleware"
	"github.com/yourusername/cphub-api/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"omitempty,max=100"`
}

// Register обрабатывает запрос на регистрацию
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &entity.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	}
	if err := h.userService.Register(user); err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserResponse(user, true))
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login обрабатывает запрос на вход и выдаёт JWT
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: dto.NewUserResponse(user, true)})
}

// GetMe возвращает профиль аутентифицированного пользователя
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, true))
}

// GetUser возвращает публичный профиль пользователя
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := middleware.GetUintParam(c, "userID")

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user, false))
}

// ListUsers возвращает страницу справочника участников
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, perPage, offset := pagination(c, 20)

	users, total, err := h.userService.ListUsers(perPage, offset)
	if err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedUsersResponse(users, total, page, perPage))
}

// UpdateHandlesRequest представляет запрос на привязку хэндлов судей
type UpdateHandlesRequest struct {
	CodeforcesHandle string `json:"codeforces_handle" binding:"omitempty,max=50"`
	AtcoderHandle    string `json:"atcoder_handle" binding:"omitempty,max=50"`
	VjudgeHandle     string `json:"vjudge_handle" binding:"omitempty,max=50"`
}

// UpdateHandles привязывает хэндлы внешних судей к своему профилю
func (h *UserHandler) UpdateHandles(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateHandlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.userService.UpdateHandles(userID, req.CodeforcesHandle, req.AtcoderHandle, req.VjudgeHandle); err != nil {
		handleServiceError(c, "UserHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Handles updated"})
}
